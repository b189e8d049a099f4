package encoder

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Archive records the amplified transcription audio of one session to a
// FLAC file in the log directory. Write is tap-compatible with the frame
// distributor and never blocks the capture path on disk IO; the encoded
// stream stays in memory until Close.
type Archive struct {
	mu      sync.Mutex
	enc     *FlacEncoder
	path    string
	pending []int16
	err     error // first encode error; disables further writes
}

// NewArchive creates a session archive writing session_<stamp>.flac in dir.
func NewArchive(dir, stamp string, sampleRate int) (*Archive, error) {
	enc, err := NewFlac(sampleRate)
	if err != nil {
		return nil, err
	}
	return &Archive{
		enc:  enc,
		path: filepath.Join(dir, "session_"+stamp+".flac"),
	}, nil
}

// Write appends raw little-endian 16-bit PCM. Full blocks are encoded
// immediately; the remainder waits for the next call.
func (a *Archive) Write(pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return
	}

	for i := 0; i+1 < len(pcm); i += 2 {
		a.pending = append(a.pending, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	for len(a.pending) >= BlockSize {
		if a.err = a.enc.EncodeBlock(a.pending[:BlockSize]); a.err != nil {
			return
		}
		a.pending = a.pending[BlockSize:]
	}
}

// Close flushes the final partial block and writes the FLAC file. Returns
// the first error seen, including any deferred encode error.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return fmt.Errorf("archive: encoding failed earlier: %w", a.err)
	}

	if len(a.pending) > 0 {
		if err := a.enc.EncodeBlock(a.pending); err != nil {
			return fmt.Errorf("archive: final block: %w", err)
		}
		a.pending = nil
	}
	if err := a.enc.Close(); err != nil {
		return fmt.Errorf("archive: closing stream: %w", err)
	}
	if err := os.WriteFile(a.path, a.enc.Bytes(), 0644); err != nil {
		return fmt.Errorf("archive: writing %s: %w", a.path, err)
	}
	return nil
}

// Path returns where the archive will be written.
func (a *Archive) Path() string { return a.path }
