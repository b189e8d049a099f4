package face

// Blink phase durations in milliseconds. The close is faster than the open,
// with a short hold in between.
const (
	blinkCloseMs = 75
	blinkPauseMs = 50
	blinkOpenMs  = 150
)

type blinkPhase int

const (
	blinkIdle blinkPhase = iota
	blinkClosing
	blinkPaused
	blinkOpening
)

// eye is one eye's blink state machine. Timing is driven entirely by the
// nowMs values passed in, so the machine is deterministic under test.
type eye struct {
	interval   float64 // ms between blinks, from the emotion profile
	phase      blinkPhase
	phaseStart float64
	lastBlink  float64
}

func newEye(intervalMs float64) *eye {
	return &eye{interval: intervalMs}
}

func (e *eye) setInterval(intervalMs float64) {
	e.interval = intervalMs
}

// openness advances the machine to nowMs and returns how open the eye is:
// 1 fully open, 0 fully closed.
func (e *eye) openness(nowMs float64) float64 {
	e.advance(nowMs)

	switch e.phase {
	case blinkClosing:
		p := (nowMs - e.phaseStart) / blinkCloseMs
		return 1 - clamp01(p)
	case blinkPaused:
		return 0
	case blinkOpening:
		p := (nowMs - e.phaseStart) / blinkOpenMs
		return clamp01(p)
	default:
		return 1
	}
}

func (e *eye) advance(nowMs float64) {
	for {
		switch e.phase {
		case blinkIdle:
			if nowMs-e.lastBlink <= e.interval {
				return
			}
			// Blinks run on a schedule, not on observation time, so the
			// machine stays a pure function of nowMs.
			e.phase = blinkClosing
			e.phaseStart = e.lastBlink + e.interval
		case blinkClosing:
			if nowMs-e.phaseStart <= blinkCloseMs {
				return
			}
			e.phase = blinkPaused
			e.phaseStart += blinkCloseMs
		case blinkPaused:
			if nowMs-e.phaseStart <= blinkPauseMs {
				return
			}
			e.phase = blinkOpening
			e.phaseStart += blinkPauseMs
		case blinkOpening:
			if nowMs-e.phaseStart <= blinkOpenMs {
				return
			}
			e.phase = blinkIdle
			e.lastBlink = e.phaseStart + blinkOpenMs
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
