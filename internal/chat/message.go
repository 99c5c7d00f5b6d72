// Package chat drives the AI conversation screen.
package chat

import "context"

// Message is one transcript entry.
type Message struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

// Store persists the whole transcript.
type Store interface {
	Load(ctx context.Context) ([]Message, error)
	Save(ctx context.Context, messages []Message) error
}

// MemoryStore keeps the transcript in memory. Used when no state directory is
// available and in tests.
type MemoryStore struct {
	messages []Message
	saves    int
}

func (s *MemoryStore) Load(context.Context) ([]Message, error) {
	return cloneMessages(s.messages), nil
}

func (s *MemoryStore) Save(_ context.Context, messages []Message) error {
	s.messages = cloneMessages(messages)
	s.saves++
	return nil
}

// Saves returns how many times Save ran.
func (s *MemoryStore) Saves() int {
	return s.saves
}

func cloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
