package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    map[string]any
		wantErr bool
	}{
		{"object", `{"query":"who spoke?"}`, map[string]any{"query": "who spoke?"}, false},
		{"empty", "  ", map[string]any{}, false},
		{"null", "null", map[string]any{}, false},
		{"broken", `{"query":`, nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseArguments(c.input)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestHashText(t *testing.T) {
	assert.Equal(t, HashText("m", "a"), HashText("m", "a"))
	assert.NotEqual(t, HashText("m", "a"), HashText("n", "a"))
	assert.NotEqual(t, HashText("ma", ""), HashText("m", "a"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "he...", Truncate("hello world", 5))
	assert.Equal(t, "ñañ", Truncate("ñañaña", 3))
}

func TestTrace(t *testing.T) {
	trace := NewTrace("turn %d", 1)
	step := trace.Step("plan")
	step.Note("tool call %s", "answer_draft")
	trace.Note("respond")

	out := trace.String()
	assert.Contains(t, out, "turn 1")
	assert.Contains(t, out, "plan")
	assert.Contains(t, out, "tool call answer_draft")
	assert.Contains(t, out, "respond")

	var nilTrace *Trace
	assert.Empty(t, nilTrace.String())
}

func TestAuditLogger(t *testing.T) {
	dir := t.TempDir()
	var echo bytes.Buffer
	audit, err := NewAuditLogger(dir, "agent", &echo, "\033[35m")
	require.NoError(t, err)
	defer audit.Close()

	audit.Printf("first")
	audit.Printf("second")
	audit.Debugf("third %d", 3)

	assert.Contains(t, echo.String(), "\033[35m[agent] ")
	assert.Contains(t, echo.String(), "🐛 third 3")
	assert.Equal(t, 3, strings.Count(echo.String(), colorReset))

	data, err := os.ReadFile(filepath.Join(dir, "agent.log"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
	assert.NotContains(t, string(data), colorReset)
}

func TestDiscardLogger(t *testing.T) {
	audit := Discard("quiet")
	audit.Printf("dropped")
	assert.NoError(t, audit.Close())
}
