// Package transcript reads Claude Code session transcripts: newline-delimited
// JSON, one record per line, appended by the assistant runtime as the session
// progresses. Lines that fail to parse are skipped — a transcript being
// written concurrently routinely ends in a truncated line.
package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
)

// Record is a single transcript line. Only the fields the hooks care about
// are modeled; everything else in the line is ignored.
type Record struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// Message carries the role and content of a user or assistant turn.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Content is either a bare string or an ordered list of typed blocks,
// depending on which runtime version wrote the line. It always unmarshals
// into a block list; bare strings become a single text block.
type Content []Block

// Block is one typed content element within a message.
type Block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	// Content holds a tool_result's payload, which is itself
	// string-or-blocks.
	Content Content `json:"content,omitempty"`
}

// UnmarshalJSON accepts both content encodings.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Content{{Type: "text", Text: s}}
		return nil
	}
	type blocks []Block
	var b blocks
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*c = Content(b)
	return nil
}

// Text concatenates the text blocks of a content list, newline-joined.
func (c Content) Text() string {
	var parts []string
	for _, b := range c {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Read loads a transcript file. Unparsable lines are dropped silently; a
// missing or unreadable file is the only error condition.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the hook envelope written by the runtime
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	// Transcript lines can be large when tool results are embedded.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		// Partial reads still count: whatever parsed before the error
		// is a usable prefix of the transcript.
		return records, nil
	}
	return records, nil
}

// largeSessionThreshold is the message count past which a session is
// reported as large by Stats.
const largeSessionThreshold = 50

// SessionStats summarizes a transcript for the pre-compaction hook.
type SessionStats struct {
	UserMessages      int
	AssistantMessages int
}

// Total returns the combined user+assistant message count.
func (s SessionStats) Total() int {
	return s.UserMessages + s.AssistantMessages
}

// Large reports whether the session is big enough to call out as such.
func (s SessionStats) Large() bool {
	return s.Total() > largeSessionThreshold
}

// Stats counts user and assistant turns.
func Stats(records []Record) SessionStats {
	var s SessionStats
	for _, rec := range records {
		switch rec.Type {
		case "user":
			s.UserMessages++
		case "assistant":
			s.AssistantMessages++
		}
	}
	return s
}

// LastAssistantText returns the text of the most recent assistant record,
// or "" when the transcript has none.
func LastAssistantText(records []Record) string {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Type == "assistant" {
			if t := records[i].Message.Content.Text(); t != "" {
				return t
			}
		}
	}
	return ""
}

// LastUserText returns the text of the most recent user record that is not
// a tool result, or "" when there is none.
func LastUserText(records []Record) string {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Type != "user" {
			continue
		}
		if isToolResultOnly(records[i].Message.Content) {
			continue
		}
		if t := records[i].Message.Content.Text(); t != "" {
			return t
		}
	}
	return ""
}

func isToolResultOnly(c Content) bool {
	if len(c) == 0 {
		return false
	}
	for _, b := range c {
		if b.Type != "tool_result" {
			return false
		}
	}
	return true
}
