// Package voice maps sub-agent actor types to speech voice identifiers.
package voice

import "strings"

// DefaultVoiceID is the primary assistant voice, used whenever the actor
// type is absent or unrecognized.
const DefaultVoiceID = "jqcCZkN6Knx8BJ5TBdYR"

// voiceByActor is the static actor-type → voice id table. Keys are
// lowercased actor labels as they appear in Task tool invocations.
var voiceByActor = map[string]string{
	"researcher": "AXdMgz6evoL7OPd7eU12",
	"engineer":   "kmSVBPu7loj4ayNinwWM",
	"designer":   "ZF6FPAbjXT4488VcRRnw",
	"pentester":  "hmMWXCj9K7N5mCPcRkfC",
	"architect":  "muZKMsIDGYtIkjjiUS82",
	"writer":     "gfRt6Z3Z8aTbpLfexQ7N",
	"assistant":  DefaultVoiceID,
}

// Select returns the voice id for an actor type, falling back to the
// default voice. Pure lookup, no failure modes.
func Select(actorType string) string {
	if id, ok := voiceByActor[strings.ToLower(strings.TrimSpace(actorType))]; ok {
		return id
	}
	return DefaultVoiceID
}
