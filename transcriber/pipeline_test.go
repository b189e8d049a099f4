package transcriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"rabble/audio"
	"rabble/config"
)

const testSampleRate = 16000

// testTransCfg gives interval 0.5 s (16000 bytes) and overlap 0.1 s (3200
// bytes) at 16 kHz mono 16-bit.
func testTransCfg() config.TranscriptionConfig {
	return config.TranscriptionConfig{
		Backend:         "fake",
		IntervalSeconds: 0.5,
		OverlapSeconds:  0.1,
		CleanupStrategy: config.CleanupNone,
	}
}

type emitted struct {
	text string
	ts   time.Time
}

func collectEmits(n int) (EmitFunc, chan emitted) {
	ch := make(chan emitted, n)
	return func(text string, ts time.Time) {
		ch <- emitted{text, ts}
	}, ch
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startPipeline(t *testing.T, backend Backend, cfg config.TranscriptionConfig, emit EmitFunc) (*Pipeline, *audio.Queue) {
	t.Helper()
	q := audio.NewQueue()
	p := NewPipeline(backend, q, cfg, testSampleRate, emit)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		p.Stop()
		<-p.Done()
	})
	return p, q
}

func TestPipelineSliceAndRetainOverlap(t *testing.T) {
	fake := NewFakeTexts("hello")
	emit, got := collectEmits(4)
	p, q := startPipeline(t, fake, testTransCfg(), emit)

	<-p.Ready()

	// 20000 bytes: one 16000-byte slice plus 4000 spare. After the slice the
	// buffer holds exactly the trailing 3200-byte overlap.
	q.Push(make([]byte, 20000))

	select {
	case e := <-got:
		if e.text != "hello" {
			t.Errorf("emitted %q, want hello", e.text)
		}
		if e.ts.IsZero() {
			t.Error("expected a capture timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no segment emitted")
	}

	waitFor(t, "overlap retention", func() bool { return p.BufferedBytes() == 3200 })
}

func TestPipelineReadyLatch(t *testing.T) {
	gate := make(chan struct{})
	fake := NewFakeTexts("x")
	fake.LoadDelay = gate
	emit, _ := collectEmits(1)
	p, _ := startPipeline(t, fake, testTransCfg(), emit)

	select {
	case <-p.Ready():
		t.Fatal("ready fired before the model finished loading")
	case <-time.After(20 * time.Millisecond):
	}
	if p.State() != StateLoading {
		t.Errorf("state = %s, want loading", p.State())
	}

	close(gate)
	select {
	case <-p.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("ready never fired")
	}
	waitFor(t, "ready state", func() bool { return p.State() == StateReady })
}

func TestPipelineLoadFailureIsFatal(t *testing.T) {
	fake := NewFake(nil, errors.New("model file corrupt"))
	emit, _ := collectEmits(1)
	p, _ := startPipeline(t, fake, testTransCfg(), emit)

	select {
	case err := <-p.Err():
		if err == nil {
			t.Fatal("expected an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no fatal error surfaced")
	}

	<-p.Done()
	select {
	case <-p.Ready():
		t.Error("ready must never fire after a load failure")
	default:
	}
	if p.State() != StateStopped {
		t.Errorf("state = %s, want stopped", p.State())
	}
}

func TestPipelinePauseKeepsBuffer(t *testing.T) {
	fake := NewFakeTexts("one", "two")
	emit, got := collectEmits(4)
	p, q := startPipeline(t, fake, testTransCfg(), emit)

	<-p.Ready()
	p.Pause()
	if p.State() != StatePaused {
		t.Fatalf("state = %s, want paused", p.State())
	}

	q.Push(make([]byte, 16000))
	waitFor(t, "paused drain", func() bool { return p.BufferedBytes() >= 16000 })

	if n := fake.Calls(); n != 0 {
		t.Fatalf("paused pipeline ran the model %d times", n)
	}

	p.Resume()
	select {
	case e := <-got:
		if e.text != "one" {
			t.Errorf("emitted %q, want one", e.text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("resume did not process the retained buffer")
	}
}

func TestPipelineTogglePause(t *testing.T) {
	fake := NewFakeTexts()
	emit, _ := collectEmits(1)
	p, _ := startPipeline(t, fake, testTransCfg(), emit)

	<-p.Ready()
	if !p.TogglePause() {
		t.Error("first toggle should pause")
	}
	if p.TogglePause() {
		t.Error("second toggle should resume")
	}
}

func TestPipelineSliceErrorSkipsAndContinues(t *testing.T) {
	fake := NewFakeTexts("never")
	fake.TranscribeErr = errors.New("inference blew up")
	emit, got := collectEmits(4)
	p, q := startPipeline(t, fake, testTransCfg(), emit)

	<-p.Ready()
	q.Push(make([]byte, 16000))
	waitFor(t, "first failing slice", func() bool { return fake.Calls() == 1 })

	q.Push(make([]byte, 16000))
	waitFor(t, "second failing slice", func() bool { return fake.Calls() == 2 })

	select {
	case e := <-got:
		t.Errorf("failing slices must not emit, got %q", e.text)
	default:
	}
	select {
	case err := <-p.Err():
		t.Errorf("slice errors are not fatal, got %v", err)
	default:
	}
	if p.State() != StateReady {
		t.Errorf("state = %s, want ready", p.State())
	}
}

func TestPipelineStopNeverBlocksProducers(t *testing.T) {
	fake := NewFakeTexts()
	emit, _ := collectEmits(1)
	p, q := startPipeline(t, fake, testTransCfg(), emit)

	<-p.Ready()
	p.Stop()
	p.Stop() // idempotent
	<-p.Done()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Push(make([]byte, 4096))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked after Stop")
	}
}

func TestPipelineExitsWhenQueueCloses(t *testing.T) {
	fake := NewFakeTexts("tail")
	emit, got := collectEmits(4)
	p, q := startPipeline(t, fake, testTransCfg(), emit)

	<-p.Ready()
	q.Push(make([]byte, 16000))
	q.Close()

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("buffered audio not processed before exit")
	}
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after queue close")
	}
}

func TestPipelineCleanupAcrossSlices(t *testing.T) {
	fake := NewFakeTexts("the cat", "cat sat on")
	cfg := testTransCfg()
	cfg.CleanupStrategy = config.CleanupSimple
	emit, got := collectEmits(4)
	p, q := startPipeline(t, fake, cfg, emit)

	<-p.Ready()
	q.Push(make([]byte, 16000))
	waitFor(t, "first slice", func() bool { return fake.Calls() == 1 })
	q.Push(make([]byte, 16000))

	want := []string{"the cat", "sat on"}
	for _, w := range want {
		select {
		case e := <-got:
			if e.text != w {
				t.Errorf("emitted %q, want %q", e.text, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing emission %q", w)
		}
	}
}

func TestPCMToFloat32(t *testing.T) {
	pcm := []byte{
		0x00, 0x00, // 0
		0x00, 0x80, // -32768
		0xff, 0x7f, // 32767
	}
	got := pcmToFloat32(pcm)
	want := []float32{0, -1, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}
