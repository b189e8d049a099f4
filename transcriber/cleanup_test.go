package transcriber

import (
	"testing"

	"rabble/config"
)

func TestCleanerNonePassesThrough(t *testing.T) {
	c := NewCleaner(config.CleanupNone)
	for _, in := range []string{"the cat", "the cat", "THE CAT."} {
		if got := c.Clean(in); got != in {
			t.Errorf("Clean(%q) = %q, want passthrough", in, got)
		}
	}
}

func TestCleanerSimple(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "overlap word dropped",
			in:   []string{"the cat", "cat sat"},
			want: []string{"the cat", "sat"},
		},
		{
			name: "multi word overlap",
			in:   []string{"we went to the", "to the store today"},
			want: []string{"we went to the", "store today"},
		},
		{
			name: "no overlap",
			in:   []string{"hello there", "general kenobi"},
			want: []string{"hello there", "general kenobi"},
		},
		{
			name: "full duplicate suppressed",
			in:   []string{"good morning", "good morning"},
			want: []string{"good morning", ""},
		},
		{
			name: "case and punctuation ignored",
			in:   []string{"see the Cat,", "cat ran off"},
			want: []string{"see the Cat,", "ran off"},
		},
		{
			name: "longest match wins",
			in:   []string{"no no no", "no no yes"},
			want: []string{"no no no", "yes"},
		},
		{
			name: "whitespace only",
			in:   []string{"   "},
			want: []string{""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCleaner(config.CleanupSimple)
			for i, in := range tt.in {
				if got := c.Clean(in); got != tt.want[i] {
					t.Errorf("segment %d: Clean(%q) = %q, want %q", i, in, got, tt.want[i])
				}
			}
		})
	}
}

func TestCleanerReset(t *testing.T) {
	c := NewCleaner(config.CleanupSimple)
	c.Clean("the cat")
	c.Reset()
	if got := c.Clean("cat sat"); got != "cat sat" {
		t.Errorf("after Reset, Clean = %q, want full text", got)
	}
}

func TestNormalizeWord(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Cat,", "cat"},
		{"HELLO!", "hello"},
		{"'quoted'", "quoted"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := normalizeWord(tt.in); got != tt.want {
			t.Errorf("normalizeWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
