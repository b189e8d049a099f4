// Package waveform turns a window of normalized audio samples plus an emotion
// profile into the ordered point sequence tracing the mouth outline for one
// display frame. Rendering is a pure function of (samples, profile, time);
// the package holds no mutable state.
package waveform

import (
	"math"

	"rabble/config"
)

// Point is one pixel coordinate of the mouth outline.
type Point struct {
	X float64
	Y float64
}

// Renderer holds the fixed mouth geometry and shared waveform tuning.
type Renderer struct {
	centerX      float64
	centerY      float64
	width        int
	maxAmplitude float64

	baseFrequency      float64
	breathingAmplitude float64
}

// New creates a renderer for a mouth centered at (centerX, centerY), width
// pixels wide, with waveform travel clamped to centerY ± maxAmplitude.
func New(centerX, centerY float64, width int, maxAmplitude float64, wc config.WaveformConfig) *Renderer {
	return &Renderer{
		centerX:            centerX,
		centerY:            centerY,
		width:              width,
		maxAmplitude:       maxAmplitude,
		baseFrequency:      wc.BaseFrequency,
		breathingAmplitude: wc.BreathingAmplitude,
	}
}

// Width returns the mouth width in pixels, which is also the number of
// points every Points call yields.
func (r *Renderer) Width() int { return r.width }

// breathing is the slow global amplitude modulation. It keeps the mouth
// moving even over silent audio.
func (r *Renderer) breathing(nowMs float64) float64 {
	return 0.7 + r.breathingAmplitude*math.Sin(nowMs*0.004)
}

// Points renders the mouth outline for one frame. samples are normalized to
// [-1, 1]; nowMs is a monotonic clock reading in milliseconds. The window of
// r.width samples centered in the input drives the shape. A window shorter
// than the mouth width degrades to a flat line at centerY; the frame never
// fails.
func (r *Renderer) Points(samples []float64, p *config.EmotionProfile, nowMs float64) []Point {
	w := r.width
	points := make([]Point, w)
	left := r.centerX - float64(w)/2

	if len(samples) < w || p == nil {
		for i := range points {
			points[i] = Point{X: left + float64(i), Y: r.centerY}
		}
		return points
	}

	start := len(samples)/2 - w/2
	window := samples[start : start+w]

	breath := r.breathing(nowMs)
	phase := nowMs * r.baseFrequency * p.CycleRate * 0.005
	amp := p.AmplitudeMultiplier

	for i, s := range window {
		xn := float64(i) / float64(w)
		var y float64

		switch p.MouthShape {
		case config.ShapeSine:
			freq := p.Param("sine_frequency", 2)
			y = r.centerY + p.YOffset + breath*amp*s*math.Sin(2*math.Pi*freq*xn+phase)

		case config.ShapeParabolic:
			freq := p.Param("parabolic_sine_frequency", 2)
			dir := p.Param("curve_direction", 1)
			unit := p.Param("amplitude_unit", 30)
			u := (float64(i) - float64(w)/2) / (float64(w) / 2)
			base := dir * unit * (1 - u*u)
			undulation := breath * amp * s * math.Sin(2*math.Pi*freq*xn+phase)
			y = r.centerY + p.YOffset + base + undulation

		case config.ShapeSaw:
			freq := p.Param("saw_frequency", 4)
			rate := p.Param("saw_rate", 1)
			baseAmp := p.Param("base_amplitude", 30)
			ph := math.Mod(xn*freq+nowMs*p.CycleRate*rate*0.001, 1)
			if ph < 0 {
				ph += 1
			}
			y = r.centerY + p.YOffset + s*amp + triangle(ph)*baseAmp*breath

		default: // passthrough
			y = r.centerY + clamp(s*amp, -r.maxAmplitude, r.maxAmplitude)
		}

		y = clamp(y, r.centerY-r.maxAmplitude, r.centerY+r.maxAmplitude)
		points[i] = Point{X: left + float64(i), Y: y}
	}

	return points
}

// triangle maps a phase in [0, 1) piecewise-linearly onto [-1, 1]:
// -1 at phase 0, +1 at phase 0.5, back to -1 at phase 1.
func triangle(ph float64) float64 {
	if ph < 0.5 {
		return 4*ph - 1
	}
	return 3 - 4*ph
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
