// Package transcriber converts the amplified microphone stream into text
// segments. A pluggable Backend does the actual speech recognition; the
// Pipeline owns the rolling buffer, overlap slicing, pause/resume state and
// the handoff to the display feed and transcript log.
package transcriber

import (
	"context"
	"fmt"

	"rabble/config"
)

// Segment is one recognized span of speech. Start and End are seconds
// relative to the transcribed slice.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Backend is the capability set every speech model must offer. LoadModel may
// be slow; it is called exactly once, from the pipeline worker. Transcribe
// receives mono float32 samples normalized to [-1, 1] and returns zero or
// more segments. Implementations are called from a single goroutine.
type Backend interface {
	Name() string
	LoadModel(ctx context.Context) error
	Transcribe(samples []float32) ([]Segment, error)
	Close() error
}

// New selects a backend from the configuration enum.
func New(cfg config.TranscriptionConfig) (Backend, error) {
	switch cfg.Backend {
	case "whisper":
		return NewWhisper(cfg.ModelPath), nil
	case "fastwhisper":
		return NewFastWhisper(cfg.ModelPath, cfg.Device, cfg.VADFilter)
	case "fake":
		return NewFake(nil, nil), nil
	default:
		return nil, fmt.Errorf("transcriber: unknown backend %q", cfg.Backend)
	}
}
