package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"karmatch/internal/api"
	"karmatch/internal/screen"
	"karmatch/internal/session"
	kerrors "karmatch/internal/shared/errors"
	"karmatch/internal/shared/logging"
)

// State is the controller phase.
type State int

const (
	StateIdle State = iota
	StateAwaiting
)

func (s State) String() string {
	if s == StateAwaiting {
		return "awaiting"
	}
	return "idle"
}

const (
	sendFailedMessage  = "Failed to send message"
	sendOfflineMessage = "Failed to send message. Check your connection and try again"
)

var (
	// ErrAwaiting rejects a send while a reply is outstanding.
	ErrAwaiting = errors.New("chat: still waiting for a reply")
	// ErrEmptyInput marks blank input; callers treat it as a no-op.
	ErrEmptyInput = errors.New("chat: empty message")
)

// Backend produces AI replies.
type Backend interface {
	Converse(ctx context.Context, token session.Token, message string) (api.ConversationResponse, error)
}

// Pending is a user message that was appended and awaits its reply.
type Pending struct {
	Text string
}

// Result describes how a send ended.
type Result struct {
	Reply  *Message
	Notice screen.Notice
	Err    error
}

// Controller owns the ordered transcript and the idle/awaiting state.
type Controller struct {
	mu       sync.Mutex
	messages []Message
	state    State
	store    Store
	backend  Backend
	logger   logging.Logger
}

// NewController wires a controller. A nil store keeps the transcript in memory.
func NewController(store Store, backend Backend, logger logging.Logger) *Controller {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Controller{store: store, backend: backend, logger: logging.OrNop(logger)}
}

// Load replaces the in-memory transcript with the persisted one. A read
// failure leaves an empty transcript.
func (c *Controller) Load(ctx context.Context) error {
	messages, err := c.store.Load(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("load chat history: %v", err)
		c.messages = nil
		return err
	}
	c.messages = cloneMessages(messages)
	c.logger.Debug("loaded %d messages", len(messages))
	return nil
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMessages(c.messages)
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin appends the user message, persists the transcript and enters the
// awaiting state. The message is kept even if the reply later fails.
func (c *Controller) Begin(ctx context.Context, input string) (Pending, error) {
	if strings.TrimSpace(input) == "" {
		return Pending{}, ErrEmptyInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAwaiting {
		return Pending{}, ErrAwaiting
	}
	c.messages = append(c.messages, Message{Text: input, IsUser: true})
	c.persistLocked(ctx)
	c.state = StateAwaiting
	return Pending{Text: input}, nil
}

// Complete requests the reply for p and returns to idle.
func (c *Controller) Complete(ctx context.Context, token session.Token, p Pending) Result {
	resp, err := c.backend.Converse(ctx, token, p.Text)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.state = StateIdle }()

	if err != nil {
		transient := kerrors.IsTransient(err)
		c.logger.Warn("conversation failed (%s, transient=%t): %v", kerrors.KindOf(err), transient, err)
		detail := sendFailedMessage
		if transient {
			detail = sendOfflineMessage
		}
		return Result{Notice: screen.Error("Error", detail), Err: err}
	}
	if !resp.Success {
		logical := &kerrors.LogicalError{Op: api.EndpointConversation, Message: resp.Message}
		c.logger.Info("conversation rejected: %v", logical)
		return Result{Notice: screen.Error("Error", resp.Message), Err: logical}
	}

	reply := Message{Text: resp.AIMessage, IsUser: false}
	c.messages = append(c.messages, reply)
	c.persistLocked(ctx)
	return Result{Reply: &reply}
}

// Send runs Begin and Complete. Blank input returns a zero Result with
// ErrEmptyInput and touches nothing.
func (c *Controller) Send(ctx context.Context, token session.Token, input string) Result {
	pending, err := c.Begin(ctx, input)
	if err != nil {
		return Result{Err: err}
	}
	return c.Complete(ctx, token, pending)
}

// Clear empties the transcript and persists the empty list.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateAwaiting {
		return ErrAwaiting
	}
	c.messages = []Message{}
	return c.persistLocked(ctx)
}

func (c *Controller) persistLocked(ctx context.Context) error {
	snapshot := cloneMessages(c.messages)
	if snapshot == nil {
		snapshot = []Message{}
	}
	if err := c.store.Save(ctx, snapshot); err != nil {
		c.logger.Warn("persist chat history: %v", err)
		return err
	}
	return nil
}
