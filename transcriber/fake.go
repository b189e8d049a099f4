package transcriber

import (
	"context"
	"sync"
)

// Fake is a scripted backend for tests and the "fake" config value. Each
// Transcribe call pops the next scripted batch of segments; when the script
// runs out it returns nothing.
type Fake struct {
	mu      sync.Mutex
	script  [][]Segment
	calls   int
	loadErr error

	// TranscribeErr, when set, is returned by every Transcribe call.
	TranscribeErr error

	// LoadDelay lets tests hold the ready latch open; LoadModel blocks until
	// the channel closes.
	LoadDelay <-chan struct{}
}

// NewFake builds a fake whose successive Transcribe calls return the given
// batches. loadErr, when non-nil, makes LoadModel fail.
func NewFake(script [][]Segment, loadErr error) *Fake {
	return &Fake{script: script, loadErr: loadErr}
}

// NewFakeTexts is a convenience wrapper: one single-segment batch per text.
func NewFakeTexts(texts ...string) *Fake {
	script := make([][]Segment, len(texts))
	for i, t := range texts {
		script[i] = []Segment{{Text: t}}
	}
	return NewFake(script, nil)
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) LoadModel(ctx context.Context) error {
	if f.LoadDelay != nil {
		select {
		case <-f.LoadDelay:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.loadErr
}

func (f *Fake) Transcribe(samples []float32) ([]Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.TranscribeErr != nil {
		return nil, f.TranscribeErr
	}
	if len(f.script) == 0 {
		return nil, nil
	}
	batch := f.script[0]
	f.script = f.script[1:]
	return batch, nil
}

// Calls returns how many times Transcribe ran.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Close() error { return nil }
