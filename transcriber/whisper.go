package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Whisper is the accuracy-first backend: whisper.cpp via its Go bindings,
// beam-search sampling, no shortcuts. Higher latency per slice than
// FastWhisper but noticeably better on crosstalk and accents.
type Whisper struct {
	modelPath string
	language  string
	model     whisperlib.Model
}

const whisperBeamSize = 5

// NewWhisper creates the backend. The model file is not touched until
// LoadModel runs on the pipeline worker.
func NewWhisper(modelPath string) *Whisper {
	return &Whisper{modelPath: modelPath, language: "en"}
}

func (w *Whisper) Name() string { return "whisper" }

// LoadModel loads the ggml model file. This is the slow step the pipeline's
// ready latch guards.
func (w *Whisper) LoadModel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.modelPath == "" {
		return errors.New("whisper: model_path is required")
	}
	model, err := whisperlib.New(w.modelPath)
	if err != nil {
		return fmt.Errorf("whisper: load model %q: %w", w.modelPath, err)
	}
	w.model = model
	return nil
}

func (w *Whisper) Transcribe(samples []float32) ([]Segment, error) {
	if w.model == nil {
		return nil, errors.New("whisper: model not loaded")
	}

	// Contexts are cheap but not thread-safe; the shared model is.
	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(w.language); err != nil {
		return nil, fmt.Errorf("whisper: set language: %w", err)
	}
	wctx.SetBeamSize(whisperBeamSize)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	return collectSegments(wctx)
}

func (w *Whisper) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}

// collectSegments drains a processed whisper context into Segments.
func collectSegments(wctx whisperlib.Context) ([]Segment, error) {
	var segments []Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:  text,
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
		})
	}
	return segments, nil
}
