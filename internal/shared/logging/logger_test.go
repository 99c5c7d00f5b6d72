package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrNopHandlesTypedNilPointers(t *testing.T) {
	var typed *printfLogger
	var logger Logger = typed
	if !IsNil(logger) {
		t.Fatalf("expected typed nil pointer to be detected")
	}
	safe := OrNop(logger)
	if IsNil(safe) {
		t.Fatalf("expected OrNop to return a usable logger")
	}
	safe.Info("hello %s", "world") // should not panic
}

func TestComponentLoggerFormatsMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	root, err := NewRoot(Config{Level: "info", Output: buf})
	require.NoError(t, err)

	logger := root.Component("login")
	logger.Info("hello %s", "world")
	logger.Debug("filtered %d", 1)

	out := buf.String()
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "component=login")
	assert.NotContains(t, out, "filtered")
}

func TestWithRequestIDTagsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	root, err := NewRoot(Config{Level: "debug", Format: "json", Output: buf})
	require.NoError(t, err)

	WithRequestID(root.Component("api"), "req-1").Warn("slow")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	// Non-root loggers pass through untouched.
	assert.Equal(t, Nop(), WithRequestID(Nop(), "req-2"))
}

func TestNewRootWritesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	root, err := NewRoot(Config{Dir: dir})
	require.NoError(t, err)

	root.Component("chat").Error("boom")
	require.NoError(t, root.Close())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "boom")
}

func TestNewRootWithoutDirDiscards(t *testing.T) {
	root, err := NewRoot(Config{})
	require.NoError(t, err)
	root.Component("x").Info("nothing")
	assert.NoError(t, root.Close())
}
