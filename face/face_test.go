package face

import (
	"testing"

	"rabble/config"
)

func testFace(t *testing.T) *Face {
	t.Helper()
	f, err := New(config.Default().Emotions, "IDLE")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewUnknownInitialEmotion(t *testing.T) {
	if _, err := New(config.Default().Emotions, "EUPHORIC"); err == nil {
		t.Fatal("expected error for unknown initial emotion")
	}
}

func TestSetEmotionUnknownIsNoOp(t *testing.T) {
	f := testFace(t)
	if err := f.SetEmotion("EUPHORIC"); err == nil {
		t.Fatal("expected error for unknown emotion")
	}
	if got := f.Emotion(); got != "IDLE" {
		t.Errorf("emotion changed to %q after failed switch, want IDLE", got)
	}
}

func TestSetEmotionSwitchesProfile(t *testing.T) {
	f := testFace(t)
	if err := f.SetEmotion("ANGRY"); err != nil {
		t.Fatalf("SetEmotion: %v", err)
	}
	st := f.State(0)
	if st.Emotion != "ANGRY" {
		t.Errorf("Emotion = %q, want ANGRY", st.Emotion)
	}
	if st.Profile.MouthShape != config.ShapeSaw {
		t.Errorf("MouthShape = %q, want saw", st.Profile.MouthShape)
	}
}

func TestBlinkCycle(t *testing.T) {
	e := newEye(1000)

	if got := e.openness(500); got != 1 {
		t.Fatalf("open before interval: openness = %v, want 1", got)
	}
	// Mid-close: interval elapsed at 1000, half way through the 75ms close.
	if got := e.openness(1000 + blinkCloseMs/2 + 1); got >= 1 || got <= 0 {
		t.Fatalf("mid-close openness = %v, want in (0, 1)", got)
	}
	// Held shut during the pause phase.
	if got := e.openness(1000 + blinkCloseMs + blinkPauseMs/2); got != 0 {
		t.Fatalf("paused openness = %v, want 0", got)
	}
	// Reopening.
	mid := 1000.0 + blinkCloseMs + blinkPauseMs + blinkOpenMs/2
	if got := e.openness(mid); got <= 0 || got >= 1 {
		t.Fatalf("mid-open openness = %v, want in (0, 1)", got)
	}
	// Fully open again, idle until the next interval.
	done := 1000.0 + blinkCloseMs + blinkPauseMs + blinkOpenMs + 1
	if got := e.openness(done); got != 1 {
		t.Fatalf("post-blink openness = %v, want 1", got)
	}
	// Second blink starts one interval after the first finished.
	if got := e.openness(done + 1000 + blinkCloseMs); got != 0 {
		t.Fatalf("second blink should be closed, openness = %v", got)
	}
}

func TestToggleEyelids(t *testing.T) {
	f := testFace(t)
	if st := f.State(0); st.RightEyelid != EyelidTop {
		t.Fatal("eyelids should start symmetric")
	}
	f.ToggleEyelids()
	if st := f.State(0); st.RightEyelid != EyelidBottom || st.LeftEyelid != EyelidTop {
		t.Fatal("toggled face should have asymmetric lids")
	}
	f.ToggleEyelids()
	if st := f.State(0); st.RightEyelid != EyelidTop {
		t.Fatal("second toggle should restore symmetry")
	}
}
