package main

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"karmatch/internal/chat"
	"karmatch/internal/screen"
	"karmatch/internal/session"
)

const clearCommand = "/clear"

type (
	chatLoadedMsg struct{ err error }
	chatReplyMsg  struct{ result chat.Result }
)

type chatScreen struct {
	ctx        context.Context
	controller *chat.Controller
	session    *session.Session

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	width    int
	ready    bool
}

func newChatScreen(ctx context.Context, controller *chat.Controller, sess *session.Session) chatScreen {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (Enter to send, /clear to reset)"
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styleBoldCyan

	return chatScreen{
		ctx:        ctx,
		controller: controller,
		session:    sess,
		viewport:   viewport.New(80, 16),
		textarea:   ta,
		spinner:    spin,
	}
}

func (s chatScreen) Init() tea.Cmd {
	ctx, controller := s.ctx, s.controller
	return tea.Batch(textarea.Blink, func() tea.Msg {
		return chatLoadedMsg{err: controller.Load(ctx)}
	})
}

func (s chatScreen) awaiting() bool {
	return s.controller.State() == chat.StateAwaiting
}

func (s chatScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.viewport.Width = max(msg.Width-4, 20)
		s.viewport.Height = max(msg.Height-6, 3)
		s.textarea.SetWidth(max(msg.Width-4, 20))
		if s.renderer == nil {
			if r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(max(s.viewport.Width-8, 20)),
			); err == nil {
				s.renderer = r
			}
		}
		s.ready = true
		s.refresh()
		return s, nil
	case chatLoadedMsg:
		s.refresh()
		if msg.err != nil {
			return s, notify(screen.Warning("History unavailable", "Starting a new conversation"))
		}
		return s, nil
	case chatReplyMsg:
		s.refresh()
		return s, notify(msg.result.Notice)
	case spinner.TickMsg:
		if !s.awaiting() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if msg.Alt {
				break
			}
			return s.send()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			s.viewport, cmd = s.viewport.Update(msg)
			return s, cmd
		}
	}

	var cmd tea.Cmd
	s.textarea, cmd = s.textarea.Update(msg)
	return s, cmd
}

func (s chatScreen) send() (screenModel, tea.Cmd) {
	input := s.textarea.Value()
	if strings.TrimSpace(input) == clearCommand {
		if err := s.controller.Clear(s.ctx); err != nil {
			if errors.Is(err, chat.ErrAwaiting) {
				return s, nil
			}
			return s, notify(screen.Error("Error", "Could not clear the conversation"))
		}
		s.textarea.Reset()
		s.refresh()
		return s, notify(screen.Info("Conversation cleared", ""))
	}

	token, err := s.session.Require()
	if err != nil {
		return s, tea.Batch(
			notify(screen.Error("Session expired", "Please log in again.")),
			navigate(screen.RouteLogin, 0),
		)
	}

	pending, err := s.controller.Begin(s.ctx, input)
	if err != nil {
		// blank input or a reply still outstanding
		return s, nil
	}
	s.textarea.Reset()
	s.refresh()

	ctx, controller := s.ctx, s.controller
	return s, tea.Batch(s.spinner.Tick, func() tea.Msg {
		return chatReplyMsg{result: controller.Complete(ctx, token, pending)}
	})
}

func (s *chatScreen) refresh() {
	messages := s.controller.Messages()
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.renderMessage(m))
	}
	if len(messages) == 0 {
		b.WriteString(styleGray.Render("Say hello to start the conversation."))
	}
	s.viewport.SetContent(b.String())
	s.viewport.GotoBottom()
}

func (s *chatScreen) renderMessage(m chat.Message) string {
	if m.IsUser {
		body := lipgloss.NewStyle().PaddingLeft(2).Render(m.Text)
		return styleBoldCyan.Render("You") + "\n" + body
	}
	content := m.Text
	if s.renderer != nil {
		if rendered, err := s.renderer.Render(content); err == nil {
			content = strings.TrimSpace(rendered)
		}
	}
	return styleBoldGreen.Render("Karmatch AI") + "\n" + lipgloss.NewStyle().PaddingLeft(2).Render(content)
}

func (s chatScreen) View() string {
	status := ""
	if s.awaiting() {
		status = s.spinner.View() + styleGray.Render(" AI is typing...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.viewport.View(), status, s.textarea.View())
}

func (s chatScreen) Title() string { return "Chat" }

func (s chatScreen) Help() string {
	return "enter send | alt+enter newline | pgup/pgdn scroll | /clear reset"
}
