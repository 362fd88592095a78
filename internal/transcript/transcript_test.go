package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

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

func TestReadSkipsInvalidLines(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"user","message":{"role":"user","content":"hello"}}`,
		`not json at all`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"hi"}]}}`,
		`{"type":"assistant","message":{"role":"assist`, // truncated tail line
	)

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "user", records[0].Type)
	require.Equal(t, "assistant", records[1].Type)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
}

func TestContentStringAndBlocks(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"user","message":{"role":"user","content":"plain string"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}}`,
	)

	records, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "plain string", records[0].Message.Content.Text())
	require.Equal(t, "a\nb", records[1].Message.Content.Text())
}

func TestToolBlocksDecoded(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"Task","input":{"subagent_type":"researcher"}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"result text"}]}}`,
	)

	records, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "tool_use", records[0].Message.Content[0].Type)
	require.Equal(t, "tu_1", records[0].Message.Content[0].ID)
	require.Equal(t, "Task", records[0].Message.Content[0].Name)
	require.Equal(t, "tu_1", records[1].Message.Content[0].ToolUseID)
	require.Equal(t, "result text", records[1].Message.Content[0].Content.Text())
}

func TestStats(t *testing.T) {
	var records []Record
	for i := 0; i < 30; i++ {
		records = append(records,
			Record{Type: "user"},
			Record{Type: "assistant"},
		)
	}
	records = append(records, Record{Type: "summary"})

	s := Stats(records)
	require.Equal(t, 30, s.UserMessages)
	require.Equal(t, 30, s.AssistantMessages)
	require.Equal(t, 60, s.Total())
	require.True(t, s.Large())

	small := Stats(records[:20])
	require.False(t, small.Large())
}

func TestLastUserTextSkipsToolResults(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"user","message":{"role":"user","content":"real question"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"Bash","input":{}}]}}`,
		`{"type":"user","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"output"}]}}`,
	)

	records, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "real question", LastUserText(records))
}
