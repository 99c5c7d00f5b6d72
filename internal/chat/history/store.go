// Package history persists the chat transcript under a fixed key.
package history

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/kaptinlin/jsonrepair"

	"karmatch/internal/chat"
	"karmatch/internal/infra/filestore"
	jsonx "karmatch/internal/shared/json"
	"karmatch/internal/shared/logging"
)

// Key names the stored transcript.
const Key = "messages"

// FileStore keeps the transcript in <dir>/messages.json and rewrites the whole
// file on every save.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger logging.Logger
}

var _ chat.Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string, logger logging.Logger) *FileStore {
	return &FileStore{
		path:   filepath.Join(dir, Key+".json"),
		logger: logging.OrNop(logger),
	}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored transcript. A missing file yields nil. A truncated
// file is repaired when possible so a crash mid-write does not lose history.
func (s *FileStore) Load(ctx context.Context) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := filestore.ReadFileOrEmpty(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", Key, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	repaired := false
	if !jsonx.Valid(data) {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", Key, err)
		}
		data, repaired = []byte(fixed), true
	}

	// Well-formed JSON of the wrong shape is an error, not something to repair.
	var messages []chat.Message
	if err := jsonx.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Key, err)
	}
	if repaired {
		s.logger.Warn("repaired damaged %s file (%d messages recovered)", Key, len(messages))
	}
	return messages, nil
}

// Save overwrites the stored transcript.
func (s *FileStore) Save(ctx context.Context, messages []chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := filestore.WriteJSON(s.path, messages, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", Key, err)
	}
	return nil
}
