package session

import (
	"fmt"
	"strings"
	"time"

	"karmatch/internal/infra/filestore"
	jsonx "karmatch/internal/shared/json"
)

// FileName is the session file inside the state directory.
const FileName = "session.json"

// Store persists the token between runs.
type Store interface {
	Load() (Token, error)
	Save(Token) error
	Clear() error
}

type sessionFile struct {
	Token      string    `json:"token"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (Token, error) {
	data, err := filestore.ReadFileOrEmpty(s.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", nil
	}
	var file sessionFile
	if err := jsonx.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("decode %s: %w", s.path, err)
	}
	return Token(strings.TrimSpace(file.Token)), nil
}

func (s *FileStore) Save(token Token) error {
	return filestore.WriteJSON(s.path, sessionFile{Token: string(token), SignedInAt: s.now().UTC()}, 0o600)
}

func (s *FileStore) Clear() error {
	return filestore.RemoveIfExists(s.path)
}
