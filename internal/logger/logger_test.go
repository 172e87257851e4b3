package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, slog.LevelInfo)
	t.Cleanup(func() { Setup(os.Stdout, slog.LevelInfo) })

	Debug("hidden", Fields{"a": 1})
	Info("card generated", Fields{"request_id": "req-1", "duration_ms": int64(42)})
	Error("provider failed", errors.New("boom"), Fields{"provider": "openai"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "debug should be filtered at info level")

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "card generated", info["msg"])
	assert.Equal(t, "req-1", info["request_id"])
	assert.EqualValues(t, 42, info["duration_ms"])

	var errLine map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &errLine))
	assert.Equal(t, "ERROR", errLine["level"])
	assert.Equal(t, "boom", errLine["error"])
	assert.Equal(t, "openai", errLine["provider"])
}

func TestFieldsAttrsSorted(t *testing.T) {
	attrs := Fields{"b": 2, "a": 1}.attrs()
	assert.Equal(t, []any{"a", 1, "b", 2}, attrs)
	assert.Nil(t, Fields{}.attrs())
}
