package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"karmatch/internal/chat"
	"karmatch/internal/login"
	"karmatch/internal/onboarding"
	"karmatch/internal/screen"
	"karmatch/internal/session"
	"karmatch/internal/shared/logging"
)

// appDeps is what the screens need from the container. Factories let tests
// substitute fakes.
type appDeps struct {
	ctx       context.Context
	session   *session.Session
	newLogin  func() (*login.Flow, error)
	newWizard func() (*onboarding.Wizard, *onboarding.Finisher, error)
	newChat   func() (*chat.Controller, error)
	now       func() time.Time
	logger    logging.Logger
}

func containerDeps(ctx context.Context, c *Container) appDeps {
	return appDeps{
		ctx:       ctx,
		session:   c.Session,
		newLogin:  c.LoginFlow,
		newWizard: c.Onboarding,
		newChat:   c.Chat,
		now:       time.Now,
		logger:    c.Logs.Component("tui"),
	}
}

func runTUI(ctx context.Context, c *Container, start screen.Route) error {
	model := newAppModel(containerDeps(ctx, c), start)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		// interrupted; the deferred cleanup still runs
		return nil
	}
	return err
}

// screenModel is one routed screen inside the app frame.
type screenModel interface {
	Init() tea.Cmd
	Update(tea.Msg) (screenModel, tea.Cmd)
	View() string
	Title() string
	Help() string
}

type (
	routeMsg         struct{ route screen.Route }
	noticeMsg        struct{ notice screen.Notice }
	noticeExpiredMsg struct{ seq int }
)

func notify(n screen.Notice) tea.Cmd {
	if n.IsZero() {
		return nil
	}
	return func() tea.Msg { return noticeMsg{notice: n} }
}

func navigate(route screen.Route, after time.Duration) tea.Cmd {
	if after <= 0 {
		return func() tea.Msg { return routeMsg{route: route} }
	}
	return tea.Tick(after, func(time.Time) tea.Msg { return routeMsg{route: route} })
}

type appModel struct {
	deps      appDeps
	route     screen.Route
	active    screenModel
	notice    screen.Notice
	noticeSeq int
	width     int
	height    int
}

func newAppModel(deps appDeps, start screen.Route) appModel {
	deps.logger = logging.OrNop(deps.logger)
	if deps.now == nil {
		deps.now = time.Now
	}
	if deps.ctx == nil {
		deps.ctx = context.Background()
	}
	m := appModel{deps: deps}
	m.route, m.active = m.screenFor(start)
	return m
}

// screenFor builds the screen for route, falling back to login when the
// route needs a session that is not there.
func (m appModel) screenFor(route screen.Route) (screen.Route, screenModel) {
	if route != screen.RouteLogin {
		if _, ok := m.deps.session.Token(); !ok {
			route = screen.RouteLogin
		}
	}
	switch route {
	case screen.RouteLogin:
		flow, err := m.deps.newLogin()
		if err != nil {
			return route, newErrorScreen(err)
		}
		return route, newLoginScreen(m.deps.ctx, flow)
	case screen.RouteOnboarding:
		wizard, finisher, err := m.deps.newWizard()
		if err != nil {
			return route, newErrorScreen(err)
		}
		return route, newOnboardScreen(m.deps.ctx, wizard, finisher, m.deps.now())
	default:
		controller, err := m.deps.newChat()
		if err != nil {
			return screen.RouteChat, newErrorScreen(err)
		}
		return screen.RouteChat, newChatScreen(m.deps.ctx, controller, m.deps.session)
	}
}

func (m appModel) Init() tea.Cmd {
	return m.active.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-6, 4)}
		var cmd tea.Cmd
		m.active, cmd = m.active.Update(inner)
		return m, cmd
	case routeMsg:
		m.deps.logger.Info("navigate %s -> %s", m.route, msg.route)
		m.route, m.active = m.screenFor(msg.route)
		cmds := []tea.Cmd{m.active.Init()}
		if m.width > 0 {
			w, h := m.width, m.height
			cmds = append(cmds, func() tea.Msg { return tea.WindowSizeMsg{Width: w, Height: h} })
		}
		return m, tea.Batch(cmds...)
	case noticeMsg:
		m.notice = msg.notice
		m.noticeSeq++
		seq := m.noticeSeq
		return m, tea.Tick(screen.DefaultNoticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = screen.Notice{}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.active, cmd = m.active.Update(msg)
	return m, cmd
}

func (m appModel) View() string {
	header := styleHeader.Width(max(m.width, 20)).Render(fmt.Sprintf("Karmatch | %s", m.active.Title()))
	footer := styleFooter.Render(m.active.Help() + " | ctrl+c quit")
	parts := []string{header, m.active.View()}
	if toast := renderNotice(m.notice); toast != "" {
		parts = append(parts, toast)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// errorScreen shows a setup failure instead of crashing the program.
type errorScreen struct {
	err error
}

func newErrorScreen(err error) errorScreen {
	return errorScreen{err: err}
}

func (s errorScreen) Init() tea.Cmd { return nil }

func (s errorScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "q" || key.Type == tea.KeyEsc) {
		return s, tea.Quit
	}
	return s, nil
}

func (s errorScreen) View() string {
	return styleBody.Render(styleError.Render(s.err.Error()))
}

func (s errorScreen) Title() string { return "Error" }

func (s errorScreen) Help() string { return "q quit" }
