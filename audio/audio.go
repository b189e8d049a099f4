// Package audio owns microphone capture. A Context enumerates devices and
// opens CaptureDevices that deliver fixed-size frames of signed 16-bit PCM
// to a callback on the capture thread. Platform backends: PulseAudio on
// Linux, miniaudio (malgo) elsewhere, plus a fake for tests and replay.
package audio

import "strings"

const BytesPerSample = 2 // 16-bit signed little-endian PCM

var btKeywords = []string{
	"airpods", "beats", "bose", "jabra", "galaxy buds", "pixel buds",
	"sony wh-", "sony wf-", "bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses whether a device name belongs to a Bluetooth headset,
// whose capture quality is usually too low for clean transcription.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives one captured frame. data is raw little-endian int16
// PCM; frameCount is the number of samples per channel. Called on the
// capture thread; implementations must not block.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	ChunkSize  uint32 // frames per delivered buffer, where the backend honors it
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}
