package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"karmatch/internal/chat"
	"karmatch/internal/login"
	"karmatch/internal/onboarding"
	"karmatch/internal/screen"
	kerrors "karmatch/internal/shared/errors"
)

// errAborted ends line mode quietly on ctrl+c or end of input.
var errAborted = errors.New("aborted")

const chatHistoryFile = "chat_history"

// prompter asks for one value at a time.
type prompter interface {
	Line(label string) (string, error)
	Choose(label string, items []string) (int, error)
}

// lineReader feeds the chat loop.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

type promptuiPrompter struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (p promptuiPrompter) Line(label string) (string, error) {
	prompt := promptui.Prompt{Label: label, Stdin: p.in, Stdout: p.out}
	value, err := prompt.Run()
	return value, mapPromptErr(err)
}

func (p promptuiPrompter) Choose(label string, items []string) (int, error) {
	sel := promptui.Select{Label: label, Items: items, Size: min(len(items), 10), Stdin: p.in, Stdout: p.out}
	idx, _, err := sel.Run()
	return idx, mapPromptErr(err)
}

func mapPromptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
		return errAborted
	}
	return err
}

// scanPrompter serves pipes and tests, where cursor-driven prompts cannot work.
type scanPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newScanPrompter(in io.Reader, out io.Writer) *scanPrompter {
	return &scanPrompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *scanPrompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errAborted
	}
	return p.scanner.Text(), nil
}

// Choose accepts a 1-based number or an item label.
func (p *scanPrompter) Choose(label string, items []string) (int, error) {
	for i, item := range items {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, item)
	}
	raw, err := p.Line(label)
	if err != nil {
		return -1, err
	}
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(items) {
		return n - 1, nil
	}
	for i, item := range items {
		if strings.EqualFold(item, raw) {
			return i, nil
		}
	}
	return -1, nil
}

func (p *scanPrompter) Readline() (string, error) {
	fmt.Fprint(p.out, "> ")
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *scanPrompter) Close() error { return nil }

// lineApp walks the routes one prompt at a time.
type lineApp struct {
	deps   appDeps
	out    io.Writer
	prompt prompter
	reader func() (lineReader, error)
	width  int
}

func runLineMode(ctx context.Context, c *Container, s streams, start screen.Route) error {
	app := &lineApp{deps: containerDeps(ctx, c), out: s.Out, width: 100}
	app.deps.logger = c.Logs.Component("line")

	if s.isTTY() {
		stdin, _ := s.In.(*os.File)
		stdout, _ := s.Out.(*os.File)
		app.prompt = promptuiPrompter{in: stdin, out: stdout}
		if w, _, err := term.GetSize(int(stdout.Fd())); err == nil && w > 0 {
			app.width = min(w-4, 120)
		}
		historyFile := filepath.Join(c.StateDir, chatHistoryFile)
		app.reader = func() (lineReader, error) {
			return readline.NewEx(&readline.Config{
				Prompt:            cyan("> "),
				HistoryFile:       historyFile,
				InterruptPrompt:   "^C",
				EOFPrompt:         "exit",
				HistorySearchFold: true,
				UniqueEditLine:    true,
				Stdin:             readline.NewCancelableStdin(stdin),
				Stdout:            stdout,
				Stderr:            s.Err,
			})
		}
	} else {
		scan := newScanPrompter(s.In, s.Out)
		app.prompt = scan
		app.reader = func() (lineReader, error) { return scan, nil }
	}
	return app.run(start)
}

func (a *lineApp) run(route screen.Route) error {
	for {
		if err := a.deps.ctx.Err(); err != nil {
			return nil
		}
		if route != screen.RouteLogin {
			if _, ok := a.deps.session.Token(); !ok {
				route = screen.RouteLogin
			}
		}

		var (
			next screen.Route
			err  error
		)
		switch route {
		case screen.RouteLogin:
			next, err = a.login()
		case screen.RouteOnboarding:
			next, err = a.onboard()
		default:
			next, err = a.chat()
		}
		if errors.Is(err, errAborted) {
			fmt.Fprintln(a.out, "\nGoodbye!")
			return nil
		}
		if err != nil {
			return err
		}
		if next == screen.RouteNone {
			return nil
		}
		route = next
	}
}

func (a *lineApp) notice(n screen.Notice) {
	if n.IsZero() {
		return
	}
	text := n.Text()
	switch n.Kind {
	case screen.NoticeSuccess:
		text = green("✓ " + text)
	case screen.NoticeError:
		text = red("✗ " + text)
	case screen.NoticeWarning:
		text = yellow("! " + text)
	case screen.NoticeInfo:
		text = cyan("i " + text)
	}
	fmt.Fprintln(a.out, text)
}

// wait pauses for d unless ctx ends first.
func (a *lineApp) wait(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-a.deps.ctx.Done():
	}
}

func (a *lineApp) login() (screen.Route, error) {
	flow, err := a.deps.newLogin()
	if err != nil {
		return screen.RouteNone, err
	}
	fmt.Fprintln(a.out, bold("Sign in to Karmatch"))
	for {
		label, submit := "Email", flow.SubmitEmail
		if flow.State() == login.StateOTPEntry {
			label, submit = "OTP", flow.SubmitOTP
		}
		value, err := a.prompt.Line(label)
		if err != nil {
			return screen.RouteNone, err
		}
		out := submit(a.deps.ctx, value)
		a.notice(out.Notice)
		if out.Message != "" {
			fmt.Fprintln(a.out, red(out.Message))
		}
		if out.Err == nil && out.Route != screen.RouteNone {
			a.wait(out.RouteAfter)
			return out.Route, nil
		}
	}
}

func (a *lineApp) onboard() (screen.Route, error) {
	wizard, finisher, err := a.deps.newWizard()
	if err != nil {
		return screen.RouteNone, err
	}
	fmt.Fprintln(a.out, bold("Let's set up your profile"))
	for {
		var stepErr error
		switch wizard.Current() {
		case onboarding.StepGender:
			stepErr = a.askGender(wizard)
		case onboarding.StepDOB:
			stepErr = a.askDOB(wizard)
		case onboarding.StepLanguages:
			stepErr = a.askLanguages(wizard)
		case onboarding.StepBio:
			route, done, err := a.askBio(finisher)
			if err != nil || done {
				return route, err
			}
			continue
		default:
			return screen.RouteHome, nil
		}
		if errors.Is(stepErr, errAborted) {
			return screen.RouteNone, stepErr
		}
		if stepErr != nil {
			fmt.Fprintln(a.out, red(kerrors.UserMessage(stepErr, stepErr.Error())))
		}
	}
}

func (a *lineApp) askGender(w *onboarding.Wizard) error {
	labels := make([]string, len(onboarding.GenderOptions))
	for i, opt := range onboarding.GenderOptions {
		labels[i] = opt.Label
	}
	idx, err := a.prompt.Choose("Gender", labels)
	if err != nil {
		return err
	}
	raw := ""
	if idx >= 0 {
		raw = string(onboarding.GenderOptions[idx].Value)
	}
	return onboarding.SubmitGender(w, raw)
}

func (a *lineApp) askDOB(w *onboarding.Wizard) error {
	picker := onboarding.NewDOBPicker(a.deps.now())
	day, err := a.prompt.Line("Day of birth (1-31)")
	if err != nil {
		return err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(day))
	if convErr != nil {
		return kerrors.NewValidationError("day", fmt.Sprintf("%q is not a day", day))
	}
	if err := picker.SetDay(n); err != nil {
		return err
	}
	idx, err := a.prompt.Choose("Month", onboarding.Months)
	if err != nil {
		return err
	}
	if idx < 0 {
		return kerrors.NewValidationError("month", "Please select a month")
	}
	if err := picker.SetMonth(onboarding.Months[idx]); err != nil {
		return err
	}
	year, err := a.prompt.Line("Year of birth")
	if err != nil {
		return err
	}
	y, convErr := strconv.Atoi(strings.TrimSpace(year))
	if convErr != nil {
		return kerrors.NewValidationError("year", fmt.Sprintf("%q is not a year", year))
	}
	if err := picker.SetYear(y); err != nil {
		return err
	}
	return onboarding.SubmitDOB(w, picker)
}

func (a *lineApp) askLanguages(w *onboarding.Wizard) error {
	fmt.Fprintln(a.out, gray("Languages: "+strings.Join(onboarding.LanguageOptions, ", ")))
	raw, err := a.prompt.Line("Languages you speak (comma separated)")
	if err != nil {
		return err
	}
	var sel onboarding.LanguageSelection
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if err := sel.Toggle(part); err != nil {
			return err
		}
	}
	selected := sel.Selected()
	if len(selected) > 0 {
		idx, err := a.prompt.Choose("Primary language", selected)
		if err != nil {
			return err
		}
		if idx >= 0 {
			if err := sel.SetPrimary(selected[idx]); err != nil {
				return err
			}
		}
	}
	return onboarding.SubmitLanguages(w, &sel)
}

// askBio reports done once the wizard has produced a route.
func (a *lineApp) askBio(f *onboarding.Finisher) (screen.Route, bool, error) {
	photo, err := a.prompt.Line("Profile photo path (empty to skip)")
	if err != nil {
		return screen.RouteNone, false, err
	}
	if strings.TrimSpace(photo) != "" {
		_, notice, _ := f.AttachPhoto(a.deps.ctx, photo)
		a.notice(notice)
	}

	var form onboarding.BioForm
	if form.FullName, err = a.prompt.Line("Full name"); err != nil {
		return screen.RouteNone, false, err
	}
	if form.Bio, err = a.prompt.Line("Bio"); err != nil {
		return screen.RouteNone, false, err
	}
	form.Social = map[string]string{}
	for _, platform := range onboarding.SocialPlatforms {
		link, err := a.prompt.Line(platform + " (optional)")
		if err != nil {
			return screen.RouteNone, false, err
		}
		form.Social[platform] = link
	}

	out := f.Submit(a.deps.ctx, form)
	a.notice(out.Notice)
	if out.Route != screen.RouteNone {
		return out.Route, true, nil
	}
	if out.Err != nil && out.Notice.IsZero() {
		fmt.Fprintln(a.out, red(out.Err.Error()))
	}
	return screen.RouteNone, false, nil
}

func (a *lineApp) chat() (screen.Route, error) {
	controller, err := a.deps.newChat()
	if err != nil {
		return screen.RouteNone, err
	}
	if err := controller.Load(a.deps.ctx); err != nil {
		a.notice(screen.Warning("History unavailable", "Starting a new conversation"))
	}
	for _, m := range controller.Messages() {
		a.printMessage(m)
	}

	rl, err := a.reader()
	if err != nil {
		return screen.RouteNone, fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(a.out, gray("Type a message. /clear resets the conversation, exit quits."))
	for {
		input, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if input == "" {
				return screen.RouteNone, errAborted
			}
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, errAborted) {
			return screen.RouteNone, errAborted
		}
		if err != nil {
			return screen.RouteNone, err
		}

		switch strings.TrimSpace(input) {
		case "":
			continue
		case "exit", "quit":
			return screen.RouteNone, errAborted
		case clearCommand:
			if err := controller.Clear(a.deps.ctx); err != nil {
				a.notice(screen.Error("Error", "Could not clear the conversation"))
			} else {
				a.notice(screen.Info("Conversation cleared", ""))
			}
			continue
		}

		token, err := a.deps.session.Require()
		if err != nil {
			a.notice(screen.Error("Session expired", "Please log in again."))
			return screen.RouteLogin, nil
		}
		fmt.Fprintln(a.out, gray("AI is typing..."))
		result := controller.Send(a.deps.ctx, token, input)
		a.notice(result.Notice)
		if result.Reply != nil {
			a.printMessage(*result.Reply)
		}
	}
}

func (a *lineApp) printMessage(m chat.Message) {
	if m.IsUser {
		fmt.Fprintf(a.out, "%s %s\n", cyan("You:"), m.Text)
		return
	}
	fmt.Fprintf(a.out, "%s\n%s\n", green("Karmatch AI:"), markdown.Render(m.Text, a.width, 6))
}
