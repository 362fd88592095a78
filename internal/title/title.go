// Package title sets the terminal tab/window title via OSC escape
// sequences. This is a side channel independent of the notification path:
// hooks use it to show what the session is doing at a glance.
package title

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// maxTitleLength keeps tab titles readable.
const maxTitleLength = 60

// Set writes the title escape sequences to stderr. Three OSC variants cover
// the terminal emulators in common use (window, tab, and iTerm-style).
func Set(title string) {
	Fprint(os.Stderr, title)
}

// Fprint writes the escape sequences to w; split out for tests.
func Fprint(w io.Writer, title string) {
	t := Sanitize(title)
	if t == "" {
		return
	}
	for _, code := range []string{"0", "2", "30"} {
		fmt.Fprintf(w, "\x1b]%s;%s\x07", code, t)
	}
}

// Sanitize reduces a title to printable ASCII and truncates it. Control
// bytes would corrupt the escape sequence itself.
func Sanitize(title string) string {
	var b strings.Builder
	for _, r := range title {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxTitleLength {
		out = strings.TrimSpace(out[:maxTitleLength])
	}
	return out
}

// FromPrompt derives a short title from a user prompt: the first few words,
// sanitized.
func FromPrompt(prompt string) string {
	words := strings.Fields(prompt)
	const maxWords = 5
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return Sanitize(strings.Join(words, " "))
}
