package transcriber

import (
	"strings"
	"unicode"

	"rabble/config"
)

// Cleaner post-processes recognized text before it reaches the display feed.
// The overlap between consecutive slices makes the model re-hear (and
// re-emit) the words around each boundary; the "simple" strategy strips the
// repeated prefix so the merged stream reads continuously.
type Cleaner struct {
	strategy config.CleanupStrategy
	prev     []string // normalized words of the previous emitted segment
}

func NewCleaner(strategy config.CleanupStrategy) *Cleaner {
	return &Cleaner{strategy: strategy}
}

// Clean returns the text to emit for a segment, or "" when the whole segment
// was already heard. The "none" strategy passes text through unchanged.
func (c *Cleaner) Clean(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if c.strategy != config.CleanupSimple {
		return text
	}

	words := strings.Fields(text)
	norm := make([]string, len(words))
	for i, w := range words {
		norm[i] = normalizeWord(w)
	}

	// Longest suffix of the previous segment that matches a prefix of this
	// one; those words were produced by the overlap and are dropped.
	drop := 0
	maxLen := min(len(c.prev), len(norm))
	for n := maxLen; n > 0; n-- {
		if wordsEqual(c.prev[len(c.prev)-n:], norm[:n]) {
			drop = n
			break
		}
	}

	c.prev = norm
	if drop == len(words) {
		return ""
	}
	return strings.Join(words[drop:], " ")
}

// Reset clears the boundary memory, e.g. after a pause.
func (c *Cleaner) Reset() {
	c.prev = nil
}

func wordsEqual(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalizeWord lower-cases and strips surrounding punctuation so "Cat," and
// "cat" dedupe against each other.
func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))
}
