// End-to-end scenarios wiring the capture fake, frame distributor,
// transcription pipeline and waveform renderer together the way main does.
package test_test

import (
	"context"
	"math"
	"testing"
	"time"

	"rabble/audio"
	"rabble/config"
	"rabble/face"
	"rabble/transcriber"
	"rabble/waveform"
	"rabble/words"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Transcription.Backend = "fake"
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	return cfg
}

// A 3 second 440 Hz tone runs the full visualization path: capture fake,
// distributor, renderer. Every one of 60 sampled frames must yield exactly
// mouth-width points, all finite, for every emotion profile.
func TestToneThroughVisualizationPath(t *testing.T) {
	cfg := defaultConfig(t)

	ctx := audio.NewToneContext(440, 3, 0.5, cfg.Audio.SampleRate, false)
	capture, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   1,
		ChunkSize:  uint32(cfg.Audio.ChunkSize),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer capture.Close()

	dist := audio.NewDistributor(cfg.Audio.GainFactor, nil, nil)
	capture.SetCallback(func(data []byte, frameCount uint32) {
		dist.Distribute(data)
	})
	if err := capture.Start(); err != nil {
		t.Fatal(err)
	}
	defer capture.Stop()

	fake := capture.(*audio.FakeCapture)
	select {
	case <-fake.AudioDone():
	case <-time.After(5 * time.Second):
		t.Fatal("tone never finished playing")
	}

	var frame []float64
	select {
	case frame = <-dist.Viz():
	case <-time.After(time.Second):
		t.Fatal("no visualization frame arrived")
	}

	r := waveform.New(
		float64(cfg.Display.Width)/2,
		float64(cfg.Display.Height)/2+float64(cfg.Face.MouthYOffset),
		cfg.Face.MouthWidth,
		cfg.Face.MaxAmplitude,
		cfg.Waveform,
	)

	for _, name := range cfg.EmotionNames() {
		profile := cfg.Emotions[name]
		for i := 0; i < 60; i++ {
			nowMs := float64(i) * 33.0
			pts := r.Points(frame, profile, nowMs)
			if len(pts) != cfg.Face.MouthWidth {
				t.Fatalf("%s at %v ms: %d points, want %d", name, nowMs, len(pts), cfg.Face.MouthWidth)
			}
			for _, p := range pts {
				if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) || math.IsNaN(p.X) || math.IsInf(p.X, 0) {
					t.Fatalf("%s at %v ms: non-finite point %+v", name, nowMs, p)
				}
			}
		}
	}
}

// The full transcription path: capture fake feeds the distributor, which
// withholds audio until the model-ready latch fires, then the pipeline
// slices and the scripted backend's segments land in the word feed.
func TestToneThroughTranscriptionPath(t *testing.T) {
	cfg := defaultConfig(t)
	tc := cfg.Transcription

	backend := transcriber.NewFakeTexts("hello there", "there world")
	feed := words.New(float64(tc.WordDisplayIntervalMs), tc.ScrollSpeed, float64(cfg.Display.Width), 10)
	queue := audio.NewQueue()

	type emission struct{ text string }
	emitted := make(chan emission, 8)
	pipeline := transcriber.NewPipeline(backend, queue, tc, cfg.Audio.SampleRate, func(text string, ts time.Time) {
		feed.Add(text)
		emitted <- emission{text}
	})
	if err := pipeline.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() {
		pipeline.Stop()
		<-pipeline.Done()
	}()

	dist := audio.NewDistributor(cfg.Audio.GainFactor, queue, pipeline.Ready())

	ctx := audio.NewToneContext(440, 3, 0.5, cfg.Audio.SampleRate, false)
	capture, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   1,
		ChunkSize:  uint32(cfg.Audio.ChunkSize),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer capture.Close()

	capture.SetCallback(func(data []byte, frameCount uint32) {
		dist.Distribute(data)
	})
	if err := capture.Start(); err != nil {
		t.Fatal(err)
	}
	defer capture.Stop()

	// Cleanup is "simple" in the default config, so the overlap word "there"
	// is deduplicated across the two scripted segments.
	want := []string{"hello there", "world"}
	for _, w := range want {
		select {
		case e := <-emitted:
			if e.text != w {
				t.Errorf("emitted %q, want %q", e.text, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("segment %q never arrived", w)
		}
	}

	// Words reach the display feed once the paced release lets them out.
	// The feed runs on a caller-supplied clock, so drive it directly.
	for i := 1; i <= 100; i++ {
		feed.Advance(float64(i) * 50)
		if len(feed.Words()) > 0 {
			return
		}
	}
	t.Fatal("no words reached the display feed")
}

// Emotion switching is a no-op for unknown names while capture is running.
func TestEmotionSwitchDuringPlayback(t *testing.T) {
	cfg := defaultConfig(t)
	f, err := face.New(cfg.Emotions, "IDLE")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range cfg.EmotionNames() {
		if err := f.SetEmotion(name); err != nil {
			t.Errorf("SetEmotion(%s): %v", name, err)
		}
	}
	if err := f.SetEmotion("FURIOUS"); err == nil {
		t.Error("expected error for unknown emotion")
	}
	if got := f.Emotion(); got != cfg.EmotionNames()[len(cfg.EmotionNames())-1] {
		t.Errorf("unknown emotion changed state to %s", got)
	}
}
