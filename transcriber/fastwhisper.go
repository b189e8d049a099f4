package transcriber

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// FastWhisper is the latency-optimized backend: greedy sampling, a
// configurable cpu/gpu execution choice, and an optional voice-activity gate
// that skips model invocation entirely on silent slices. Interchangeable
// with Whisper behind the Backend interface.
type FastWhisper struct {
	modelPath string
	language  string
	device    string
	model     whisperlib.Model

	gate *VADGate // nil when vad_filter is off
}

// NewFastWhisper creates the backend. device must be "cpu" or "gpu"; when
// vadFilter is set a webrtcvad gate is armed in front of the model.
func NewFastWhisper(modelPath, device string, vadFilter bool) (*FastWhisper, error) {
	if device != "cpu" && device != "gpu" {
		return nil, fmt.Errorf("fastwhisper: device must be \"cpu\" or \"gpu\", got %q", device)
	}
	f := &FastWhisper{
		modelPath: modelPath,
		language:  "en",
		device:    device,
	}
	if vadFilter {
		gate, err := NewVADGate()
		if err != nil {
			return nil, fmt.Errorf("fastwhisper: init vad: %w", err)
		}
		f.gate = gate
	}
	return f, nil
}

func (f *FastWhisper) Name() string { return "fastwhisper" }

func (f *FastWhisper) LoadModel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.modelPath == "" {
		return errors.New("fastwhisper: model_path is required")
	}
	model, err := whisperlib.New(f.modelPath)
	if err != nil {
		return fmt.Errorf("fastwhisper: load model %q: %w", f.modelPath, err)
	}
	f.model = model
	return nil
}

func (f *FastWhisper) Transcribe(samples []float32) ([]Segment, error) {
	if f.model == nil {
		return nil, errors.New("fastwhisper: model not loaded")
	}

	// The gate runs before any model work: a silent slice costs one RMS/VAD
	// pass and nothing else.
	if f.gate != nil && !f.gate.HasSpeech(samples) {
		return nil, nil
	}

	wctx, err := f.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("fastwhisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(f.language); err != nil {
		return nil, fmt.Errorf("fastwhisper: set language: %w", err)
	}
	wctx.SetBeamSize(1) // greedy
	if f.device == "cpu" {
		// Keep inference on the host: saturate cores instead of offloading.
		wctx.SetThreads(uint(runtime.NumCPU()))
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("fastwhisper: process audio: %w", err)
	}

	return collectSegments(wctx)
}

func (f *FastWhisper) Close() error {
	if f.model != nil {
		return f.model.Close()
	}
	return nil
}
