package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmatch/internal/api"
	"karmatch/internal/screen"
	"karmatch/internal/session"
	kerrors "karmatch/internal/shared/errors"
)

type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	tokens  []session.Token
	reply   api.ConversationResponse
	err     error
	release chan struct{}
}

func (f *fakeBackend) Converse(ctx context.Context, token session.Token, message string) (api.ConversationResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSendIgnoresBlankInput(t *testing.T) {
	store := &MemoryStore{}
	backend := &fakeBackend{}
	c := NewController(store, backend, nil)

	for _, input := range []string{"", "   ", "\n\t"} {
		result := c.Send(context.Background(), "tok", input)
		assert.ErrorIs(t, result.Err, ErrEmptyInput)
		assert.True(t, result.Notice.IsZero())
	}
	assert.Empty(t, c.Messages())
	assert.Zero(t, backend.callCount())
	assert.Zero(t, store.Saves())
}

func TestSendAppendsUserAndReply(t *testing.T) {
	store := &MemoryStore{}
	backend := &fakeBackend{reply: api.ConversationResponse{Success: true, AIMessage: "Hi"}}
	c := NewController(store, backend, nil)

	result := c.Send(context.Background(), "tok", "hello")
	require.NoError(t, result.Err)
	require.NotNil(t, result.Reply)

	assert.Equal(t, []Message{{Text: "hello", IsUser: true}, {Text: "Hi", IsUser: false}}, c.Messages())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, []session.Token{"tok"}, backend.tokens)
	assert.Equal(t, 2, store.Saves())

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c.Messages(), persisted)
}

func TestSendLogicalFailureKeepsUserMessage(t *testing.T) {
	backend := &fakeBackend{reply: api.ConversationResponse{Success: false, Message: "quota exceeded"}}
	c := NewController(nil, backend, nil)

	result := c.Send(context.Background(), "tok", "hello")
	assert.Equal(t, kerrors.KindLogical, kerrors.KindOf(result.Err))
	assert.Equal(t, screen.NoticeError, result.Notice.Kind)
	assert.Equal(t, "quota exceeded", result.Notice.Detail)
	assert.Equal(t, []Message{{Text: "hello", IsUser: true}}, c.Messages())
	assert.Equal(t, StateIdle, c.State())
}

func TestSendTransportFailure(t *testing.T) {
	backend := &fakeBackend{err: &kerrors.TransportError{Op: "conversation", Err: errors.New("connection refused")}}
	c := NewController(nil, backend, nil)

	result := c.Send(context.Background(), "tok", "hello")
	assert.Equal(t, kerrors.KindTransport, kerrors.KindOf(result.Err))
	assert.Equal(t, "Failed to send message. Check your connection and try again", result.Notice.Detail)
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, StateIdle, c.State())
}

func TestSendRejectedByHTTPStatus(t *testing.T) {
	backend := &fakeBackend{err: &kerrors.TransportError{Op: "conversation", StatusCode: 400}}
	c := NewController(nil, backend, nil)

	result := c.Send(context.Background(), "tok", "hello")
	assert.False(t, kerrors.IsTransient(result.Err))
	assert.Equal(t, screen.Notice{Kind: screen.NoticeError, Title: "Error", Detail: "Failed to send message"}, result.Notice)
	assert.Equal(t, StateIdle, c.State())
}

func TestSendWhileAwaitingIsRejected(t *testing.T) {
	backend := &fakeBackend{
		reply:   api.ConversationResponse{Success: true, AIMessage: "done"},
		release: make(chan struct{}),
	}
	c := NewController(nil, backend, nil)

	pending, err := c.Begin(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, StateAwaiting, c.State())

	done := make(chan Result, 1)
	go func() { done <- c.Complete(context.Background(), "tok", pending) }()

	result := c.Send(context.Background(), "tok", "second")
	assert.ErrorIs(t, result.Err, ErrAwaiting)
	assert.ErrorIs(t, c.Clear(context.Background()), ErrAwaiting)

	close(backend.release)
	first := <-done
	require.NoError(t, first.Err)
	assert.Equal(t, []Message{{Text: "first", IsUser: true}, {Text: "done", IsUser: false}}, c.Messages())
	assert.Equal(t, 1, backend.callCount())
}

func TestTranscriptRoundTripsAfterExchanges(t *testing.T) {
	store := &MemoryStore{}
	backend := &fakeBackend{reply: api.ConversationResponse{Success: true, AIMessage: "ok"}}
	c := NewController(store, backend, nil)

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Send(context.Background(), "tok", "ping").Err)
	}

	reloaded := NewController(store, backend, nil)
	require.NoError(t, reloaded.Load(context.Background()))
	assert.Equal(t, c.Messages(), reloaded.Messages())
	assert.Len(t, reloaded.Messages(), 8)
}

func TestClearPersistsEmptyList(t *testing.T) {
	store := &MemoryStore{messages: []Message{{Text: "old", IsUser: true}}}
	c := NewController(store, &fakeBackend{}, nil)
	require.NoError(t, c.Load(context.Background()))
	require.Len(t, c.Messages(), 1)

	require.NoError(t, c.Clear(context.Background()))
	assert.Empty(t, c.Messages())
	persisted, _ := store.Load(context.Background())
	assert.Equal(t, []Message{}, persisted)
}

type failingStore struct{}

func (failingStore) Load(context.Context) ([]Message, error) { return nil, errors.New("disk gone") }

func (failingStore) Save(context.Context, []Message) error { return errors.New("disk gone") }

func TestStoreFailuresDoNotBlockChat(t *testing.T) {
	backend := &fakeBackend{reply: api.ConversationResponse{Success: true, AIMessage: "Hi"}}
	c := NewController(failingStore{}, backend, nil)

	assert.Error(t, c.Load(context.Background()))
	result := c.Send(context.Background(), "tok", "hello")
	require.NoError(t, result.Err)
	assert.Len(t, c.Messages(), 2)
}
