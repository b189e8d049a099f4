package main

import (
	"strings"
	"sync"
	"time"

	"rabble/log"
	"rabble/words"
)

// session collects every cleaned segment of the current run so the TUI can
// copy the full transcript to the clipboard and report a segment count at
// shutdown.
type session struct {
	mu       sync.Mutex
	segments []string
}

func (s *session) append(text string) {
	s.mu.Lock()
	s.segments = append(s.segments, text)
	s.mu.Unlock()
}

func (s *session) transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.segments, " ")
}

func (s *session) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// newSegmentSink fans one recognized segment out to every consumer: the
// scrolling word feed, the session transcript, and the transcript log.
// Called from the transcription worker.
func newSegmentSink(feed *words.Feed, sess *session) func(text string, ts time.Time) {
	return func(text string, ts time.Time) {
		feed.Add(text)
		sess.append(text)
		log.Transcript(text, ts)
	}
}
