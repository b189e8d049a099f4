package words

import (
	"math"
	"testing"
)

// newTestFeed: release every 300 ms, scroll 100 px/s, right edge 800,
// 10 px cells.
func newTestFeed() *Feed {
	return New(300, 100, 800, 10)
}

func TestPacedRelease(t *testing.T) {
	f := newTestFeed()
	f.Add("one two three")

	f.Advance(0)
	if got := len(f.Words()); got != 0 {
		t.Fatalf("released %d words before the interval elapsed", got)
	}

	f.Advance(300)
	if got := len(f.Words()); got != 1 {
		t.Fatalf("after one interval got %d words, want 1", got)
	}

	// A tick inside the interval releases nothing.
	f.Advance(450)
	if got := len(f.Words()); got != 1 {
		t.Fatalf("mid-interval tick released a word, got %d", got)
	}

	f.Advance(600)
	f.Advance(900)
	if got := len(f.Words()); got != 3 {
		t.Fatalf("got %d words, want 3", got)
	}
	if f.Pending() != 0 {
		t.Errorf("pending = %d, want 0", f.Pending())
	}
}

func TestReleaseOrderPreserved(t *testing.T) {
	f := newTestFeed()
	f.Add("alpha beta")
	f.Add("gamma")

	for now := 300.0; now <= 900; now += 300 {
		f.Advance(now)
	}
	words := f.Words()
	want := []string{"alpha", "beta", "gamma"}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d", len(words), len(want))
	}
	for i, w := range want {
		if words[i].Text != w {
			t.Errorf("word %d = %q, want %q", i, words[i].Text, w)
		}
	}
}

func TestSpawnAtRightEdge(t *testing.T) {
	f := newTestFeed()
	f.Add("hi")
	f.Advance(300)

	words := f.Words()
	if len(words) != 1 {
		t.Fatal("expected one word")
	}
	if words[0].X != 800 {
		t.Errorf("spawn x = %v, want 800", words[0].X)
	}
	if words[0].SpawnMs != 300 {
		t.Errorf("spawn time = %v, want 300", words[0].SpawnMs)
	}
}

func TestSpawnAfterPreviousWord(t *testing.T) {
	f := newTestFeed()
	f.Add("first second")

	f.Advance(300)
	// 100 ms later the first word has moved 10 px left (790) and still covers
	// the right edge; the second word must spawn behind it, not on top.
	f.Advance(400)
	f.Advance(700)

	words := f.Words()
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	first, second := words[0], words[1]
	firstRight := first.X + float64(len(first.Text))*10
	if second.X < firstRight {
		t.Errorf("second word at %v overlaps first ending at %v", second.X, firstRight)
	}
}

func TestScrollSpeed(t *testing.T) {
	f := newTestFeed()
	f.Add("word")
	f.Advance(300)

	x0 := f.Words()[0].X
	f.Advance(1300) // one second
	x1 := f.Words()[0].X

	if got := x0 - x1; math.Abs(got-100) > 1e-9 {
		t.Errorf("scrolled %v px in 1 s, want 100", got)
	}
}

func TestEvictionPastLeftBoundary(t *testing.T) {
	f := newTestFeed()
	f.Add("bye")
	f.Advance(300)

	// "bye" is 30 px wide, spawned at 800: it is gone once x < -30, i.e.
	// after 8.3 s of scrolling at 100 px/s.
	f.Advance(8500)
	if got := len(f.Words()); got != 1 {
		t.Fatalf("word evicted too early, got %d", got)
	}
	f.Advance(8700)
	if got := len(f.Words()); got != 0 {
		t.Errorf("word not evicted, got %d", got)
	}
}

func TestAddEmptySegment(t *testing.T) {
	f := newTestFeed()
	f.Add("   ")
	f.Advance(300)
	if got := len(f.Words()); got != 0 {
		t.Errorf("empty segment produced %d words", got)
	}
	if f.Total() != 0 {
		t.Errorf("total = %d, want 0", f.Total())
	}
}

func TestWordsSnapshotIsolated(t *testing.T) {
	f := newTestFeed()
	f.Add("snap")
	f.Advance(300)

	snap := f.Words()
	snap[0].X = -999
	if f.Words()[0].X == -999 {
		t.Error("snapshot aliases internal state")
	}
}
