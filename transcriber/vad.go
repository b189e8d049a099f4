package transcriber

import (
	"encoding/binary"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

const (
	vadSampleRate = 16000 // whisper.cpp input is always 16 kHz mono
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = vadSampleRate * vadFrameMs / 1000 * 2 // 640 bytes
	vadDebounce   = 3 // consecutive speech frames to confirm voice

	// speechMinRatio is the fraction of voiced frames a slice needs to be
	// worth sending to the model.
	speechMinRatio = 0.10
)

// VADGate decides per slice whether the model should run at all. It wraps
// webrtcvad in its most aggressive mode and debounces single spurious
// frames.
type VADGate struct {
	vad *webrtcvad.VAD
}

func NewVADGate() (*VADGate, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &VADGate{vad: v}, nil
}

// HasSpeech reports whether the slice contains enough voiced audio to be
// worth transcribing. samples are float32 in [-1, 1] at 16 kHz mono.
func (g *VADGate) HasSpeech(samples []float32) bool {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v)))
	}

	var total, voiced, run, longestRun int
	for len(buf) >= vadFrameBytes {
		frame := buf[:vadFrameBytes]
		buf = buf[vadFrameBytes:]

		active, err := g.vad.Process(vadSampleRate, frame)
		if err != nil {
			continue
		}
		total++
		if active {
			voiced++
			run++
			if run > longestRun {
				longestRun = run
			}
		} else {
			run = 0
		}
	}

	if total == 0 || longestRun < vadDebounce {
		return false
	}
	return float64(voiced)/float64(total) >= speechMinRatio
}
