// Package extract pulls a short, speakable completion phrase out of a
// session transcript. Absence of a completion is a normal outcome, not an
// error — most turns simply don't carry a marker.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/zipaJopa/PAJ/internal/transcript"
)

// taskToolName is the tool the runtime uses to delegate work to a sub-agent.
const taskToolName = "Task"

// Completion is the extracted result: a voice-ready message and the actor
// type that produced it. ActorType is "" when no actor was identified.
type Completion struct {
	Message   string `json:"message"`
	ActorType string `json:"actor_type,omitempty"`
}

// delegation describes the most recent Task tool invocation found in a
// transcript and its result, if appended yet.
type delegation struct {
	actorType  string
	resultText string
	resolved   bool // tool_result located
}

// findDelegation scans backward for the last assistant record carrying a
// Task tool_use block, then forward from there for the matching
// tool_result. Transcript ordering guarantees the result, when present,
// appears at or after the invocation.
func findDelegation(records []transcript.Record) (delegation, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Type != "assistant" {
			continue
		}
		for _, b := range records[i].Message.Content {
			if b.Type != "tool_use" || b.Name != taskToolName || b.ID == "" {
				continue
			}
			d := delegation{actorType: subagentType(b.Input)}
			for j := i; j < len(records); j++ {
				for _, rb := range records[j].Message.Content {
					if rb.Type == "tool_result" && rb.ToolUseID == b.ID {
						d.resultText = rb.Content.Text()
						d.resolved = true
						return d, true
					}
				}
			}
			return d, true
		}
	}
	return delegation{}, false
}

func subagentType(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	var in struct {
		SubagentType string `json:"subagent_type"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(in.SubagentType))
}

// extractFromText runs the ordered matchers over a candidate response text
// and applies the generic-phrase fallback against the last user request.
func extractFromText(candidate, lastUserText, actorHint string) (Completion, bool) {
	if strings.TrimSpace(candidate) == "" {
		return Completion{}, false
	}

	var m phraseMatch
	matched := false
	for _, mt := range orderedMatchers {
		if got, ok := mt.match(candidate); ok {
			m = got
			matched = true
			break
		}
	}
	if !matched {
		return Completion{}, false
	}

	actor := m.ActorType
	if actor == "" {
		actor = actorHint
	}

	message := m.Phrase
	if isGenericPhrase(message) {
		if derived, ok := deriveFromContext(lastUserText, candidate); ok {
			message = derived
		}
	}

	return Completion{Message: message, ActorType: actor}, true
}

// Extract scans a transcript for the most recent completion. The candidate
// source is the latest delegated sub-task result when one exists, otherwise
// the last assistant message.
func Extract(records []transcript.Record) (Completion, bool) {
	lastUser := transcript.LastUserText(records)

	if d, ok := findDelegation(records); ok && d.resolved {
		if c, found := extractFromText(d.resultText, lastUser, d.actorType); found {
			return c, true
		}
	}

	return extractFromText(transcript.LastAssistantText(records), lastUser, "")
}

// ExtractFromFile reads a transcript once and extracts a completion.
func ExtractFromFile(path string) (Completion, bool, error) {
	records, err := transcript.Read(path)
	if err != nil {
		return Completion{}, false, err
	}
	c, found := Extract(records)
	return c, found, nil
}
