package extract

import (
	"regexp"
	"strings"
)

// maxCustomPhraseWords caps the voice-optimized marker: longer custom
// phrases are rejected so spoken output stays terse, and extraction falls
// through to the regular completion markers.
const maxCustomPhraseWords = 8

// genericPhrases are boilerplate completions that carry no useful spoken
// information. A matched phrase on this list triggers the context-derived
// fallback instead of being spoken verbatim (unless the fallback finds
// nothing either).
var genericPhrases = map[string]struct{}{
	"completed successfully": {},
	"task completed":         {},
	"task complete":          {},
	"done":                   {},
	"all done":               {},
	"finished":               {},
}

// Marker formats, most specific first:
//
//	🗣️ Fixed the login bug              voice-optimized, word-capped
//	🎯 COMPLETED [researcher]: ...       actor-tagged
//	🎯 COMPLETED: ...                    generic
var (
	voiceMarkerRe   = regexp.MustCompile(`(?m)^\s*🗣️\s*(?:COMPLETED:?\s*)?(.+?)\s*$`)
	taggedMarkerRe  = regexp.MustCompile(`(?m)^\s*🎯\s*COMPLETED\s*\[([^\]]+)\]\s*:\s*(.+?)\s*$`)
	genericMarkerRe = regexp.MustCompile(`(?m)^\s*🎯\s*COMPLETED:?\s*(.+?)\s*$`)
)

// phraseMatch is the structured result of one matcher.
type phraseMatch struct {
	Phrase    string
	ActorType string
}

// matcher inspects a response text and optionally produces a match.
type matcher struct {
	name  string
	match func(text string) (phraseMatch, bool)
}

// orderedMatchers is the extraction priority order; first match wins.
var orderedMatchers = []matcher{
	{name: "voice-optimized", match: matchVoiceMarker},
	{name: "actor-tagged", match: matchTaggedMarker},
	{name: "generic-marker", match: matchGenericMarker},
}

func matchVoiceMarker(text string) (phraseMatch, bool) {
	m := voiceMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return phraseMatch{}, false
	}
	phrase := cleanPhrase(m[1])
	if phrase == "" || len(strings.Fields(phrase)) > maxCustomPhraseWords {
		return phraseMatch{}, false
	}
	return phraseMatch{Phrase: phrase}, true
}

func matchTaggedMarker(text string) (phraseMatch, bool) {
	m := taggedMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return phraseMatch{}, false
	}
	phrase := cleanPhrase(m[2])
	if phrase == "" {
		return phraseMatch{}, false
	}
	return phraseMatch{Phrase: phrase, ActorType: strings.ToLower(strings.TrimSpace(m[1]))}, true
}

func matchGenericMarker(text string) (phraseMatch, bool) {
	m := genericMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return phraseMatch{}, false
	}
	phrase := cleanPhrase(m[1])
	if phrase == "" {
		return phraseMatch{}, false
	}
	return phraseMatch{Phrase: phrase}, true
}

var (
	inlineTagRe  = regexp.MustCompile(`\[[^\]]*\]`)
	markupRe     = regexp.MustCompile("[*_~`#]+")
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// cleanPhrase makes a matched phrase voice-ready: inline actor tags gone,
// markdown emphasis stripped, whitespace collapsed.
func cleanPhrase(raw string) string {
	s := inlineTagRe.ReplaceAllString(raw, " ")
	s = markupRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// isGenericPhrase reports whether a phrase is on the known-boilerplate list.
func isGenericPhrase(phrase string) bool {
	key := strings.ToLower(strings.TrimSpace(strings.TrimRight(phrase, ".!")))
	_, ok := genericPhrases[key]
	return ok
}
