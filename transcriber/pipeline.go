package transcriber

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"rabble/audio"
	"rabble/config"
	"rabble/log"
)

// State is the pipeline lifecycle:
// STOPPED → LOADING_MODEL → READY ⇄ PAUSED → STOPPED.
type State int32

const (
	StateStopped State = iota
	StateLoading
	StateReady
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading model"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// EmitFunc receives each cleaned, non-empty text segment with its capture
// timestamp. Called from the pipeline worker.
type EmitFunc func(text string, ts time.Time)

// Pipeline drives one Backend over the amplified audio stream: it drains the
// unbounded input queue into a rolling byte buffer, slices interval-sized
// windows with overlap retention, and forwards cleaned segments.
type Pipeline struct {
	backend Backend
	input   *audio.Queue
	cleaner *Cleaner
	emit    EmitFunc

	intervalBytes int
	overlapBytes  int
	sampleRate    int

	state  atomic.Int32
	paused atomic.Bool

	ready    chan struct{} // closed once the model is loaded
	errCh    chan error    // fatal pipeline errors, capacity 1
	resumeCh chan struct{} // wakes the worker so retained audio is sliced
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	buf []byte
}

// NewPipeline builds a pipeline over backend, reading amplified PCM from
// input at sampleRate (mono 16-bit).
func NewPipeline(backend Backend, input *audio.Queue, cfg config.TranscriptionConfig, sampleRate int, emit EmitFunc) *Pipeline {
	bytesPerSecond := sampleRate * audio.BytesPerSample
	intervalBytes := int(cfg.IntervalSeconds * float64(bytesPerSecond))
	overlapBytes := int(cfg.OverlapSeconds * float64(bytesPerSecond))
	// Keep slices sample-aligned.
	intervalBytes -= intervalBytes % audio.BytesPerSample
	overlapBytes -= overlapBytes % audio.BytesPerSample

	return &Pipeline{
		backend:       backend,
		input:         input,
		cleaner:       NewCleaner(cfg.CleanupStrategy),
		emit:          emit,
		intervalBytes: intervalBytes,
		overlapBytes:  overlapBytes,
		sampleRate:    sampleRate,
		ready:         make(chan struct{}),
		errCh:         make(chan error, 1),
		resumeCh:      make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Ready fires once the backend's model has finished loading. The capture
// side waits on this latch before feeding the input queue.
func (p *Pipeline) Ready() <-chan struct{} { return p.ready }

// Err delivers the pipeline's fatal error, if any. Model load failure and
// nothing else is fatal; per-slice errors are logged and skipped.
func (p *Pipeline) Err() <-chan error { return p.errCh }

// Done fires when the worker has exited.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

// Start launches the worker. It is an error to start a pipeline twice.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateStopped), int32(StateLoading)) {
		return fmt.Errorf("pipeline: already started (state %s)", p.State())
	}
	go p.run(ctx)
	return nil
}

// Pause suspends slicing and segment emission. Buffered and newly arriving
// audio is retained, so Resume continues from the current buffer state.
func (p *Pipeline) Pause() {
	if p.state.CompareAndSwap(int32(StateReady), int32(StatePaused)) {
		p.paused.Store(true)
		log.Info("transcription paused")
	}
}

// Resume re-enables slicing after a Pause and wakes the worker so audio
// buffered during the pause is sliced without waiting for new input.
func (p *Pipeline) Resume() {
	if p.state.CompareAndSwap(int32(StatePaused), int32(StateReady)) {
		p.paused.Store(false)
		select {
		case p.resumeCh <- struct{}{}:
		default:
		}
		log.Info("transcription resumed")
	}
}

// TogglePause flips READY⇄PAUSED and reports whether the pipeline is now
// paused.
func (p *Pipeline) TogglePause() bool {
	if p.paused.Load() {
		p.Resume()
	} else {
		p.Pause()
	}
	return p.paused.Load()
}

// Stop terminates the pipeline from any state. Safe to call repeatedly; it
// never blocks producers (the input queue keeps absorbing pushes).
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)
	defer p.state.Store(int32(StateStopped))
	defer func() {
		if err := p.backend.Close(); err != nil {
			log.Errorf("closing %s backend: %v", p.backend.Name(), err)
		}
	}()

	log.Info("loading " + p.backend.Name() + " model")
	start := time.Now()
	if err := p.backend.LoadModel(ctx); err != nil {
		// Fatal: the pipeline cannot run without a model. The ready latch
		// never fires, so capture never feeds the queue.
		p.errCh <- fmt.Errorf("pipeline: loading %s model: %w", p.backend.Name(), err)
		return
	}
	log.Infof("%s model loaded in %s", p.backend.Name(), time.Since(start).Round(time.Millisecond))
	p.state.Store(int32(StateReady))
	close(p.ready)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-p.input.Wait():
		case <-p.resumeCh:
		}

		for _, chunk := range p.input.Drain() {
			p.mu.Lock()
			p.buf = append(p.buf, chunk...)
			p.mu.Unlock()
		}

		for p.BufferedBytes() >= p.intervalBytes && !p.paused.Load() {
			p.processSlice()
		}

		// The queue signals Close exactly once, so check before blocking
		// again.
		if p.input.Closed() && p.input.Len() == 0 {
			return
		}
	}
}

// processSlice transcribes the first interval worth of buffered audio, then
// retains exactly the trailing overlap worth of the buffer as seed context
// for the next slice. Everything between is dropped by design: the slice was
// heard, and the overlap alone carries boundary words across.
func (p *Pipeline) processSlice() {
	p.mu.Lock()
	slice := make([]byte, p.intervalBytes)
	copy(slice, p.buf[:p.intervalBytes])

	keep := p.overlapBytes
	if keep > len(p.buf) {
		keep = len(p.buf)
	}
	tail := make([]byte, keep)
	copy(tail, p.buf[len(p.buf)-keep:])
	p.buf = tail
	p.mu.Unlock()

	ts := time.Now()
	segments, err := p.backend.Transcribe(pcmToFloat32(slice))
	if err != nil {
		// Recovered locally: skip this slice, keep the stream alive.
		log.Warnf("transcription slice failed: %v", err)
		return
	}
	audioS := float64(len(slice)) / float64(p.sampleRate*audio.BytesPerSample)
	log.Slice(p.backend.Name(), audioS, float64(time.Since(ts).Microseconds())/1000, len(segments))

	for _, seg := range segments {
		if text := p.cleaner.Clean(seg.Text); text != "" {
			p.emit(text, ts)
		}
	}
}

// BufferedBytes returns the current ring buffer length.
func (p *Pipeline) BufferedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

func pcmToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/audio.BytesPerSample)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}
