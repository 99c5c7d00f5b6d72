package main

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"karmatch/internal/login"
	"karmatch/internal/screen"
)

type loginResultMsg struct {
	outcome login.Outcome
}

type loginScreen struct {
	ctx     context.Context
	flow    *login.Flow
	input   textinput.Model
	spinner spinner.Model
	busy    bool
	message string
	leaving bool
}

func newLoginScreen(ctx context.Context, flow *login.Flow) loginScreen {
	input := textinput.New()
	input.Placeholder = "you@example.com"
	input.Prompt = "Email: "
	input.CharLimit = 254
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styleBoldCyan

	return loginScreen{ctx: ctx, flow: flow, input: input, spinner: spin}
}

func (s loginScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s loginScreen) submit() tea.Cmd {
	ctx, flow, value := s.ctx, s.flow, s.input.Value()
	if flow.State() == login.StateOTPEntry {
		return func() tea.Msg { return loginResultMsg{outcome: flow.SubmitOTP(ctx, value)} }
	}
	return func() tea.Msg { return loginResultMsg{outcome: flow.SubmitEmail(ctx, value)} }
}

func (s loginScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.input.Width = max(msg.Width-12, 10)
		return s, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			if s.busy || s.leaving {
				return s, nil
			}
			s.busy = true
			s.message = ""
			return s, tea.Batch(s.spinner.Tick, s.submit())
		}
	case spinner.TickMsg:
		if !s.busy {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case loginResultMsg:
		return s.handleOutcome(msg.outcome)
	}

	if s.busy || s.leaving {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s loginScreen) handleOutcome(out login.Outcome) (screenModel, tea.Cmd) {
	s.busy = false
	if errors.Is(out.Err, login.ErrBusy) || errors.Is(out.Err, login.ErrWrongState) {
		return s, nil
	}
	s.message = out.Message
	cmds := []tea.Cmd{notify(out.Notice)}

	if out.Err == nil && out.Route != screen.RouteNone {
		s.leaving = true
		s.input.Blur()
		cmds = append(cmds, navigate(out.Route, out.RouteAfter))
		return s, tea.Batch(cmds...)
	}
	if out.Err == nil && out.State == login.StateOTPEntry && s.input.Prompt != "OTP: " {
		s.input.SetValue("")
		s.input.Prompt = "OTP: "
		s.input.Placeholder = "6-digit code"
		s.input.CharLimit = 12
	}
	return s, tea.Batch(cmds...)
}

func (s loginScreen) View() string {
	var b strings.Builder
	if s.flow.State() == login.StateOTPEntry {
		b.WriteString(styleBold.Render("Enter the code sent to " + s.flow.Email()))
	} else {
		b.WriteString(styleBold.Render("Sign in with your email"))
	}
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	b.WriteString("\n")
	switch {
	case s.busy:
		b.WriteString("\n" + s.spinner.View() + styleGray.Render(" Please wait..."))
	case s.leaving:
		b.WriteString("\n" + styleBoldGreen.Render("Signed in. Redirecting..."))
	case s.message != "":
		b.WriteString("\n" + styleError.Render(s.message))
	}
	return styleBody.Render(b.String())
}

func (s loginScreen) Title() string {
	if s.flow.State() == login.StateOTPEntry {
		return "Verify OTP"
	}
	return "Login"
}

func (s loginScreen) Help() string {
	return "enter submit"
}
