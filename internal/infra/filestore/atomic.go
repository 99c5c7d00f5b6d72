package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonx "karmatch/internal/shared/json"
)

// EnsureDir creates the directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// EnsureParentDir creates the parent directory of filePath.
func EnsureParentDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// AtomicWrite replaces filePath with data through a temp file in the same
// directory followed by a rename, so readers never observe a partial file.
func AtomicWrite(filePath string, data []byte, perm os.FileMode) error {
	if err := EnsureParentDir(filePath); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		cleanup()
		return err
	}
	return nil
}

// ReadFileOrEmpty reads a file, returning (nil, nil) if the file doesn't exist.
func ReadFileOrEmpty(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// RemoveIfExists deletes path and ignores a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ResolvePath expands a leading ~ and environment variables. If configured is
// empty, defaultPath is used.
func ResolvePath(configured, defaultPath string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return path
	}

	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			switch {
			case len(path) == 1:
				path = home
			case path[1] == '/':
				path = filepath.Join(home, path[2:])
			default:
				path = filepath.Join(home, path[1:])
			}
		}
	}
	return os.ExpandEnv(path)
}

// WriteJSON marshals v as indented JSON with a trailing newline and writes it
// atomically.
func WriteJSON(filePath string, v any, perm os.FileMode) error {
	data, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(filePath), err)
	}
	return AtomicWrite(filePath, append(data, '\n'), perm)
}
