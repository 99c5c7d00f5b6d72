package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite_CreatesFileAndParentDirs(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub", "deep", "file.json")

	require.NoError(t, AtomicWrite(target, []byte(`{"ok":true}`), 0o600))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWrite_NoTempFileLeftOnSuccess(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.json")

	require.NoError(t, AtomicWrite(target, []byte("one"), 0o600))
	require.NoError(t, AtomicWrite(target, []byte("two"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file.json", entries[0].Name())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestReadFileOrEmpty(t *testing.T) {
	data, err := ReadFileOrEmpty(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, data)

	p := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))
	data, err = ReadFileOrEmpty(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRemoveIfExists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "gone.json")
	assert.NoError(t, RemoveIfExists(p))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	assert.NoError(t, RemoveIfExists(p))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".karmatch"), ResolvePath("", "~/.karmatch"))
	assert.Equal(t, home, ResolvePath("~", ""))
	assert.Equal(t, "/tmp/x", ResolvePath(" /tmp/x ", "~/.karmatch"))

	t.Setenv("KARMATCH_TEST_DIR", "/var/state")
	assert.Equal(t, "/var/state/chat", ResolvePath("$KARMATCH_TEST_DIR/chat", ""))
}

func TestWriteJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, WriteJSON(p, map[string]int{"a": 1}, 0o600))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
}
