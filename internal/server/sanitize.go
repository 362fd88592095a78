package server

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxTextLength bounds titles and messages everywhere: validation rejects
// longer input, and sanitization re-truncates as a second layer.
const maxTextLength = 500

// Validation rejects anything that could escape into a shell or script
// context. Sanitization afterward strips to an allow-list — two independent
// layers, since sanitized text is interpolated into an osascript literal.
var (
	shellMetaRe = regexp.MustCompile("[;&|><`$(){}\\[\\]\\\\]")
	traversalRe = regexp.MustCompile(`\.\./`)
	scriptTagRe = regexp.MustCompile(`(?i)<script`)

	speechAllowRe = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?'-]`)
)

var errTextTooLong = fmt.Errorf("text too long (max %d characters)", maxTextLength)

// ValidateText checks a title or message against the inbound rules.
func ValidateText(s string) error {
	if len(s) > maxTextLength {
		return errTextTooLong
	}
	if shellMetaRe.MatchString(s) {
		return errors.New("invalid characters in input: shell metacharacters not allowed")
	}
	if traversalRe.MatchString(s) {
		return errors.New("invalid characters in input: path traversal not allowed")
	}
	if scriptTagRe.MatchString(s) {
		return errors.New("invalid characters in input: script tags not allowed")
	}
	return nil
}

// SanitizeForSpeech strips text to alphanumerics, whitespace and basic
// punctuation, and truncates to the length bound. Applied after validation
// and before the text reaches any subprocess.
func SanitizeForSpeech(s string) string {
	out := speechAllowRe.ReplaceAllString(s, "")
	out = strings.TrimSpace(out)
	if len(out) > maxTextLength {
		out = out[:maxTextLength]
	}
	return out
}
