package audio

import (
	"encoding/binary"
	"math"
	"os"
	"sync"
	"time"
)

const wavHeaderSize = 44

// FakeContext replays canned PCM instead of touching a real microphone.
// Sources: a WAV file (header stripped, 16-bit mono assumed) or a synthesized
// sine tone. Used by tests and the -fake flag.
type FakeContext struct {
	pcm      []byte
	config   CaptureConfig
	realtime bool
}

// NewFakeContext replays the given WAV file. realtime paces delivery at the
// configured sample rate; otherwise all audio is delivered as fast as the
// consumer accepts it.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > wavHeaderSize {
		data = data[wavHeaderSize:]
	}
	return &FakeContext{pcm: data, realtime: realtime}, nil
}

// NewToneContext synthesizes seconds of a mono sine tone at freqHz, at the
// amplitude fraction of full scale, sampled at sampleRate.
func NewToneContext(freqHz float64, seconds float64, amplitude float64, sampleRate int, realtime bool) *FakeContext {
	n := int(seconds * float64(sampleRate))
	pcm := make([]byte, n*BytesPerSample)
	for i := 0; i < n; i++ {
		v := amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*32767)))
	}
	return &FakeContext{
		pcm:      pcm,
		config:   CaptureConfig{SampleRate: uint32(sampleRate), Channels: 1},
		realtime: realtime,
	}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	chunk := int(config.ChunkSize)
	if chunk == 0 {
		chunk = 1024
	}
	return &FakeCapture{
		pcm:        f.pcm,
		realtime:   f.realtime,
		chunkBytes: chunk * BytesPerSample,
		sampleRate: int(config.SampleRate),
		audioDone:  make(chan struct{}),
	}, nil
}

// FakeCapture feeds the canned PCM to the callback, then silence until
// stopped. AudioDone is closed once the canned audio is exhausted so tests
// can wait for "everything was delivered".
type FakeCapture struct {
	pcm        []byte
	realtime   bool
	chunkBytes int
	sampleRate int
	audioDone  chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) loadCallback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+f.chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/BytesPerSample))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	var interval time.Duration
	if f.realtime && f.sampleRate > 0 {
		frames := f.chunkBytes / BytesPerSample
		interval = time.Duration(frames) * time.Second / time.Duration(f.sampleRate)
	}

	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, f.chunkBytes)
		finished := false

		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			cb := f.loadCallback()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.pcm) {
				pos = f.feedChunk(cb, pos)
			} else {
				if !finished {
					finished = true
					close(f.audioDone)
				}
				cb(silence, uint32(f.chunkBytes/BytesPerSample))
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(max(interval, time.Millisecond)):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.feedDone != nil {
		<-f.feedDone
	}
}

func (f *FakeCapture) Close() {}
