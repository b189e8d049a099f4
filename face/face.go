// Package face holds the animated face's non-drawing state: which emotion
// profile is active and where each eye is in its blink cycle. Pixel work
// stays in the UI layer; this package only answers "how open is each eye
// right now" and "which profile drives the mouth".
package face

import (
	"fmt"
	"sync"

	"rabble/config"
)

// EyelidPosition selects which edge the eyelid closes from.
type EyelidPosition int

const (
	EyelidTop EyelidPosition = iota
	EyelidBottom
)

// State is a snapshot of the face for one display frame.
type State struct {
	Emotion      string
	Profile      *config.EmotionProfile
	LeftOpen     float64 // 1 fully open .. 0 fully closed
	RightOpen    float64
	LeftEyelid   EyelidPosition
	RightEyelid  EyelidPosition
}

// Face tracks the active emotion and both eyes. Safe for concurrent use: the
// UI thread reads snapshots while the input handler switches emotions.
type Face struct {
	mu       sync.Mutex
	profiles map[string]*config.EmotionProfile
	current  *config.EmotionProfile

	left       *eye
	right      *eye
	asymmetric bool
}

// New creates a face over the loaded emotion set, starting on the named
// profile.
func New(profiles map[string]*config.EmotionProfile, initial string) (*Face, error) {
	p, ok := profiles[initial]
	if !ok {
		return nil, fmt.Errorf("face: unknown initial emotion %q", initial)
	}
	f := &Face{
		profiles: profiles,
		current:  p,
		left:     newEye(float64(p.BlinkInterval)),
		right:    newEye(float64(p.BlinkInterval)),
	}
	return f, nil
}

// SetEmotion switches the active profile by name. Unknown names leave the
// face unchanged and return an error; every profile referenced at runtime
// must exist in the loaded set.
func (f *Face) SetEmotion(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[name]
	if !ok {
		return fmt.Errorf("face: unknown emotion %q", name)
	}
	f.current = p
	f.left.setInterval(float64(p.BlinkInterval))
	f.right.setInterval(float64(p.BlinkInterval))
	return nil
}

// Emotion returns the active profile name.
func (f *Face) Emotion() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.Name
}

// Profile returns the active emotion profile.
func (f *Face) Profile() *config.EmotionProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// ToggleEyelids flips between symmetric (both top) and asymmetric
// (left top, right bottom) eyelid placement. Cosmetic only.
func (f *Face) ToggleEyelids() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asymmetric = !f.asymmetric
}

// State advances both blink machines to nowMs and returns the frame
// snapshot.
func (f *Face) State(nowMs float64) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	rightLid := EyelidTop
	if f.asymmetric {
		rightLid = EyelidBottom
	}
	return State{
		Emotion:     f.current.Name,
		Profile:     f.current,
		LeftOpen:    f.left.openness(nowMs),
		RightOpen:   f.right.openness(nowMs),
		LeftEyelid:  EyelidTop,
		RightEyelid: rightLid,
	}
}
