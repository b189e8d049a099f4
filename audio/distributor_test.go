package audio

import (
	"encoding/binary"
	"testing"
)

func pcmFrame(samples ...int16) []byte {
	b := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func TestDistributeNormalizesForViz(t *testing.T) {
	d := NewDistributor(1.0, nil, nil)
	d.Distribute(pcmFrame(0, 16384, -16384, 32767))

	frame := <-d.Viz()
	want := []float64{0, 0.5, -0.5, 32767.0 / 32768.0}
	if len(frame) != len(want) {
		t.Fatalf("frame length = %d, want %d", len(frame), len(want))
	}
	for i := range want {
		if diff := frame[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("sample %d = %v, want %v", i, frame[i], want[i])
		}
	}
}

func TestVizQueueDropsOldest(t *testing.T) {
	d := NewDistributor(1.0, nil, nil)
	for i := int16(1); i <= 5; i++ {
		d.Distribute(pcmFrame(i * 1000))
	}

	if n := len(d.viz); n > VizQueueCap {
		t.Fatalf("viz queue holds %d frames, cap is %d", n, VizQueueCap)
	}

	// Only the freshest two frames survive.
	first := <-d.Viz()
	second := <-d.Viz()
	if got := first[0] * 32768; int16(got) != 4000 {
		t.Errorf("oldest surviving frame = %v, want sample 4000", got)
	}
	if got := second[0] * 32768; int16(got) != 5000 {
		t.Errorf("newest frame = %v, want sample 5000", got)
	}
}

func TestDistributeAmplifiesAndClipsForTranscription(t *testing.T) {
	q := NewQueue()
	ready := make(chan struct{})
	close(ready)
	d := NewDistributor(2.0, q, ready)

	d.Distribute(pcmFrame(100, 20000, -20000))

	chunks := q.Drain()
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	got := chunks[0]
	wantSamples := []int16{200, 32767, -32768} // clipped at both rails
	for i, want := range wantSamples {
		s := int16(binary.LittleEndian.Uint16(got[i*2:]))
		if s != want {
			t.Errorf("sample %d = %d, want %d", i, s, want)
		}
	}
}

func TestDistributeWithholdsTranscriptionUntilReady(t *testing.T) {
	q := NewQueue()
	ready := make(chan struct{})
	d := NewDistributor(1.0, q, ready)

	d.Distribute(pcmFrame(1, 2, 3))
	if q.Len() != 0 {
		t.Fatal("transcription audio leaked before the model-ready latch fired")
	}
	// Visualization flows regardless.
	select {
	case <-d.Viz():
	default:
		t.Fatal("visualization frame missing while model loads")
	}

	close(ready)
	d.Distribute(pcmFrame(4, 5, 6))
	if q.Len() != 1 {
		t.Fatalf("queue length = %d after latch, want 1", q.Len())
	}
}

func TestTranscriptionQueueNeverDrops(t *testing.T) {
	q := NewQueue()
	ready := make(chan struct{})
	close(ready)
	d := NewDistributor(1.0, q, ready)

	const frames = 1000
	for i := 0; i < frames; i++ {
		d.Distribute(pcmFrame(int16(i)))
	}
	if got := q.Len(); got != frames {
		t.Fatalf("transcription queue kept %d of %d frames", got, frames)
	}
}

func TestDistributeIgnoresShortFrames(t *testing.T) {
	d := NewDistributor(1.0, nil, nil)
	d.Distribute(nil)
	d.Distribute([]byte{0x01}) // odd trailing byte only
	select {
	case <-d.Viz():
		t.Fatal("empty frame should not publish")
	default:
	}
}

func TestQueueCloseWakesWaiter(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()
	q.Close()
	<-done
	q.Push([]byte{1, 2}) // no-op after close
	if q.Len() != 0 {
		t.Fatal("push after close should be ignored")
	}
}

func TestDistributorTap(t *testing.T) {
	q := NewQueue()
	ready := make(chan struct{})
	close(ready)
	d := NewDistributor(1.0, q, ready)

	var tapped int
	d.SetTap(func(b []byte) { tapped += len(b) })

	d.Distribute(pcmFrame(1, 2, 3, 4))
	if tapped != 8 {
		t.Errorf("tap received %d bytes, want 8", tapped)
	}
}
