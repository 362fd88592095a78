package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zipaJopa/PAJ/internal/transcript"
)

func jsonMarshal(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func assistantLine(text string) string {
	b, _ := jsonMarshal(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"role":    "assistant",
			"content": []map[string]any{{"type": "text", "text": text}},
		},
	})
	return b
}

func userLine(text string) string {
	b, _ := jsonMarshal(map[string]any{
		"type": "user",
		"message": map[string]any{
			"role":    "user",
			"content": text,
		},
	})
	return b
}

func TestExtractGenericMarker(t *testing.T) {
	path := writeTranscript(t,
		userLine("fix the login bug"),
		assistantLine("I dug into the session handling.\n🎯 COMPLETED: Fixed the login bug"),
	)

	c, found, err := ExtractFromFile(path)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Fixed the login bug", c.Message)
	require.Empty(t, c.ActorType)
}

func TestExtractActorTagged(t *testing.T) {
	records := parseLines(t,
		assistantLine("🎯 COMPLETED [Researcher]: Gathered the survey results"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Gathered the survey results", c.Message)
	require.Equal(t, "researcher", c.ActorType)
}

func TestVoiceMarkerPreferredWhenShort(t *testing.T) {
	records := parseLines(t,
		assistantLine("🗣️ Login bug squashed\n🎯 COMPLETED: Fixed the login bug in auth.go"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Login bug squashed", c.Message)
}

func TestVoiceMarkerRejectedWhenLong(t *testing.T) {
	records := parseLines(t,
		assistantLine("🗣️ This custom phrase is way too long to be spoken out loud comfortably\n🎯 COMPLETED: Fixed it"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Fixed it", c.Message)
}

func TestExtractStripsMarkup(t *testing.T) {
	records := parseLines(t,
		assistantLine("🎯 COMPLETED: Fixed  the  **login**   `bug`"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Fixed the login bug", c.Message)
}

func TestNoMarkerNotFound(t *testing.T) {
	records := parseLines(t,
		userLine("hello"),
		assistantLine("Here is a long explanation with no completion marker at all."),
	)

	_, found := Extract(records)
	require.False(t, found)
}

func TestGenericPhraseThanksFallback(t *testing.T) {
	records := parseLines(t,
		userLine("thanks!"),
		assistantLine("🎯 COMPLETED: Task completed"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "You're welcome!", c.Message)
}

func TestGenericPhraseArithmeticFallback(t *testing.T) {
	records := parseLines(t,
		userLine("123 + 456"),
		assistantLine("123 + 456 = 579\n🎯 COMPLETED: Done"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "The answer is 579", c.Message)
}

func TestGenericPhraseYesNoFallback(t *testing.T) {
	records := parseLines(t,
		userLine("is 7919 a prime number?"),
		assistantLine("Yes, 7919 is prime.\n🎯 COMPLETED: Completed successfully"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Yes.", c.Message)
}

func TestGenericPhraseUnrecognizedRequestKeptVerbatim(t *testing.T) {
	records := parseLines(t,
		userLine("refactor the storage layer and add tests"),
		assistantLine("🎯 COMPLETED: Task completed"),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Task completed", c.Message)
}

func TestExtractIdempotent(t *testing.T) {
	path := writeTranscript(t,
		userLine("fix it"),
		assistantLine("🎯 COMPLETED: Fixed the login bug"),
	)

	first, foundFirst, err := ExtractFromFile(path)
	require.NoError(t, err)
	second, foundSecond, err := ExtractFromFile(path)
	require.NoError(t, err)
	require.Equal(t, foundFirst, foundSecond)
	require.Equal(t, first, second)
}

func TestDelegationResultPreferred(t *testing.T) {
	records := parseLines(t,
		userLine("research Go schedulers"),
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_9","name":"Task","input":{"subagent_type":"Researcher"}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_9","content":"🎯 COMPLETED: Collected the scheduler papers"}]}}`,
		assistantLine("The sub-task wrapped up."),
	)

	c, found := Extract(records)
	require.True(t, found)
	require.Equal(t, "Collected the scheduler papers", c.Message)
	require.Equal(t, "researcher", c.ActorType)
}

func TestSubagentRetryResolvesOnLaterRead(t *testing.T) {
	path := writeTranscript(t,
		userLine("research this"),
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"Task","input":{"subagent_type":"engineer"}}]}}`,
	)

	// Append the result shortly after the first read attempt fails.
	go func() {
		time.Sleep(15 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = f.WriteString(`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"🎯 COMPLETED: Built the prototype"}]}}` + "\n")
	}()

	c, found, err := ExtractSubagentFromFile(path, RetryOptions{MaxAttempts: 10, Interval: 5 * time.Millisecond})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Built the prototype", c.Message)
	require.Equal(t, "engineer", c.ActorType)
}

func TestSubagentRetryExhaustedFallsBack(t *testing.T) {
	path := writeTranscript(t,
		userLine("just answer"),
		assistantLine("🎯 COMPLETED: Answered directly"),
	)

	c, found, err := ExtractSubagentFromFile(path, RetryOptions{MaxAttempts: 3, Interval: time.Millisecond})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Answered directly", c.Message)
}

func TestSubagentMissingTranscript(t *testing.T) {
	_, _, err := ExtractSubagentFromFile(filepath.Join(t.TempDir(), "missing.jsonl"), RetryOptions{MaxAttempts: 3, Interval: time.Millisecond})
	require.Error(t, err)
}

func TestLinearBackOffProgression(t *testing.T) {
	b := &linearBackOff{interval: 100 * time.Millisecond}
	require.Equal(t, 100*time.Millisecond, b.NextBackOff())
	require.Equal(t, 200*time.Millisecond, b.NextBackOff())
	require.Equal(t, 300*time.Millisecond, b.NextBackOff())
	b.Reset()
	require.Equal(t, 100*time.Millisecond, b.NextBackOff())
}

// parseLines round-trips raw JSONL lines through the transcript reader.
func parseLines(t *testing.T, lines ...string) []transcript.Record {
	t.Helper()
	path := writeTranscript(t, lines...)
	records, err := transcript.Read(path)
	require.NoError(t, err)
	return records
}
