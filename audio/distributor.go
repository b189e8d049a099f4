package audio

import (
	"encoding/binary"
	"sync"
)

// Queue is an unbounded FIFO of PCM byte chunks feeding the transcription
// pipeline. Transcription needs completeness — dropping audio corrupts
// recognition — so pushes never block and never discard. Readers block on
// Wait until data arrives or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	chunks [][]byte
	signal chan struct{}
	closed bool
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push appends one chunk. The chunk is not copied; callers hand over
// ownership.
func (q *Queue) Push(chunk []byte) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.chunks = append(q.chunks, chunk)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Drain removes and returns all queued chunks, oldest first. Returns nil
// when empty.
func (q *Queue) Drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	chunks := q.chunks
	q.chunks = nil
	return chunks
}

// Len returns the number of queued chunks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks)
}

// Wait returns a channel that fires when new data may be available.
func (q *Queue) Wait() <-chan struct{} { return q.signal }

// Close wakes any blocked reader and makes further pushes no-ops.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// VizQueueCap bounds the visualization queue. The render path wants recency,
// not completeness: two frames of slack, oldest dropped on overflow.
const VizQueueCap = 2

// Distributor fans one captured frame out to the two consumers with their
// opposite backpressure policies: a normalized copy to the lossy
// visualization channel and an amplified copy to the unbounded transcription
// queue. The transcription copy is withheld until ready fires, so the
// pipeline's model is never flooded while loading.
type Distributor struct {
	gain  float64
	viz   chan []float64
	trans *Queue
	ready <-chan struct{}

	// tap, when set, receives each amplified transcription chunk. Used for
	// the optional session audio archive.
	tap func([]byte)
}

// NewDistributor builds a distributor. ready may be nil when there is no
// transcription pipeline (visualization-only operation).
func NewDistributor(gain float64, trans *Queue, ready <-chan struct{}) *Distributor {
	return &Distributor{
		gain:  gain,
		viz:   make(chan []float64, VizQueueCap),
		trans: trans,
		ready: ready,
	}
}

// SetTap installs a sink for amplified transcription audio. Must be called
// before capture starts.
func (d *Distributor) SetTap(tap func([]byte)) { d.tap = tap }

// Viz returns the bounded visualization channel. Consumers poll it
// non-blocking and keep the previous frame when it is empty.
func (d *Distributor) Viz() <-chan []float64 { return d.viz }

// Distribute processes one captured frame. Runs on the capture thread and
// never blocks. Odd trailing bytes are dropped; empty frames ignored.
func (d *Distributor) Distribute(frame []byte) {
	n := len(frame) / BytesPerSample
	if n == 0 {
		return
	}

	normalized := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[i*2:]))
		normalized[i] = float64(s) / 32768.0
	}
	d.publishViz(normalized)

	if d.trans == nil || !d.modelReady() {
		return
	}

	amplified := make([]byte, n*BytesPerSample)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(frame[i*2:]))
		v := float64(s) * d.gain
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(amplified[i*2:], uint16(int16(v)))
	}
	d.trans.Push(amplified)
	if d.tap != nil {
		d.tap(amplified)
	}
}

// publishViz offers a frame to the visualization channel, evicting the
// oldest entry instead of blocking when the consumer lags.
func (d *Distributor) publishViz(frame []float64) {
	for {
		select {
		case d.viz <- frame:
			return
		default:
		}
		select {
		case <-d.viz: // drop oldest
		default:
		}
	}
}

func (d *Distributor) modelReady() bool {
	if d.ready == nil {
		return true
	}
	select {
	case <-d.ready:
		return true
	default:
		return false
	}
}
