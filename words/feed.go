// Package words smooths the bursty arrival of transcribed text into a
// steady, readable scroll. Segments land in a pending queue; a paced timer
// releases one token at a time into the active queue, which drifts left at a
// constant speed until each word leaves the screen.
package words

import (
	"strings"
	"sync"
)

// Word is one active on-screen token.
type Word struct {
	Text    string
	X       float64 // left edge, pixels
	SpawnMs float64
}

// Feed holds the pending and active word queues. All methods are safe for
// concurrent use; the transcription worker calls Add while the render loop
// calls Advance and Words.
type Feed struct {
	mu      sync.Mutex
	pending []string
	active  []Word

	intervalMs float64 // paced release period
	speed      float64 // pixels per second, leftward
	rightEdge  float64 // spawn boundary
	cellWidth  float64 // pixel width of one rune

	lastRelease float64
	lastTick    float64
	total       int
}

// New builds a feed releasing one word every intervalMs, scrolling at speed
// pixels per second. rightEdge is the spawn x, cellWidth the width of one
// rune in pixels.
func New(intervalMs, speed, rightEdge, cellWidth float64) *Feed {
	return &Feed{
		intervalMs: intervalMs,
		speed:      speed,
		rightEdge:  rightEdge,
		cellWidth:  cellWidth,
	}
}

// Add splits a segment into tokens and appends them to the pending queue.
func (f *Feed) Add(text string) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return
	}
	f.mu.Lock()
	f.pending = append(f.pending, tokens...)
	f.total += len(tokens)
	f.mu.Unlock()
}

// Advance moves the feed to nowMs: releases at most one pending token per
// call once intervalMs has elapsed, scrolls active words left, and evicts
// words fully past the left boundary.
func (f *Feed) Advance(nowMs float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	elapsed := 0.0
	if f.lastTick > 0 {
		elapsed = (nowMs - f.lastTick) / 1000.0
	}
	f.lastTick = nowMs

	for i := range f.active {
		f.active[i].X -= f.speed * elapsed
	}

	// Evict words whose right edge has crossed x = 0. Active is ordered by
	// spawn time, so the leftmost words are at the front.
	keep := f.active[:0]
	for _, w := range f.active {
		if w.X+f.width(w.Text) > 0 {
			keep = append(keep, w)
		}
	}
	f.active = keep

	if len(f.pending) > 0 && nowMs-f.lastRelease >= f.intervalMs {
		f.release(nowMs)
		f.lastRelease = nowMs
	}
}

// release pops one pending token into active. Spawn x is the right edge, or
// just after the previous word when that word has not yet cleared the edge.
func (f *Feed) release(nowMs float64) {
	token := f.pending[0]
	f.pending = f.pending[1:]

	x := f.rightEdge
	if n := len(f.active); n > 0 {
		prev := f.active[n-1]
		if after := prev.X + f.width(prev.Text) + f.cellWidth; after > x {
			x = after
		}
	}
	f.active = append(f.active, Word{Text: token, X: x, SpawnMs: nowMs})
}

func (f *Feed) width(text string) float64 {
	return float64(len([]rune(text))) * f.cellWidth
}

// Words returns a snapshot of the active words, leftmost first.
func (f *Feed) Words() []Word {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Word, len(f.active))
	copy(out, f.active)
	return out
}

// Pending returns how many tokens are waiting for release.
func (f *Feed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Total returns how many tokens have ever been added. Shown in the status
// line.
func (f *Feed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}
