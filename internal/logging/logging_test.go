package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("WIB", 7*3600)
	l := New(&buf, loc)

	l.Log(map[string]any{"event": "db_migration_step", "status": "success"})
	l.Log(map[string]any{"event": "db_migration_failed", "status": "error"})
	l.Log(map[string]any{"event": "custom", "level": "debug"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "debug", lines[2]["level"])

	ts, err := time.Parse(time.RFC3339Nano, lines[0]["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, nil)

	l.Info("sync_completed", map[string]any{"section": "projects"})
	l.Warn("sync_partial", nil)
	l.Error("sync_failed", errors.New("boom"), map[string]any{"section": "services"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "sync_completed", lines[0]["msg"])
	assert.Equal(t, "projects", lines[0]["section"])
	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "boom", lines[2]["error"])
	assert.Equal(t, "error", lines[2]["level"])
}

func TestNewWriter(t *testing.T) {
	w, closeFn := NewWriter(FileOptions{})
	assert.NotNil(t, w)
	assert.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "nexus.log")
	w, closeFn = NewWriter(FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1})
	_, err := w.Write([]byte("{}\n"))
	require.NoError(t, err)
	assert.NoError(t, closeFn())
	assert.FileExists(t, path)
}
