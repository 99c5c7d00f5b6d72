package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"karmatch/internal/onboarding"
	"karmatch/internal/screen"
	kerrors "karmatch/internal/shared/errors"
)

type (
	onboardUploadMsg struct {
		url    string
		notice screen.Notice
		err    error
	}
	onboardSubmitMsg struct {
		outcome onboarding.Outcome
	}
)

// Bio step inputs, in focus order. Social links follow fieldPhoto.
const (
	fieldName = iota
	fieldBio
	fieldPhoto
	fieldSocial
)

type onboardScreen struct {
	ctx      context.Context
	wizard   *onboarding.Wizard
	finisher *onboarding.Finisher

	genderCursor int

	dob       *onboarding.DOBPicker
	dobColumn int
	years     []int

	languages  onboarding.LanguageSelection
	langCursor int

	inputs  []textinput.Model
	focus   int
	photo   string
	spinner spinner.Model
	busy    bool
	done    bool

	message string
}

func newOnboardScreen(ctx context.Context, wizard *onboarding.Wizard, finisher *onboarding.Finisher, now time.Time) onboardScreen {
	dob := onboarding.NewDOBPicker(now)
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styleBoldCyan

	s := onboardScreen{
		ctx:          ctx,
		wizard:       wizard,
		finisher:     finisher,
		genderCursor: -1,
		dob:          dob,
		years:        dob.Years(),
		spinner:      spin,
	}
	s.inputs = newBioInputs()
	return s
}

func newBioInputs() []textinput.Model {
	labels := append([]string{"Full name", "Bio", "Photo path"}, onboarding.SocialPlatforms...)
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-11s ", label+":")
		in.CharLimit = onboarding.MaxFieldLength
		if i == fieldPhoto {
			in.CharLimit = 4096
			in.Placeholder = "~/Pictures/me.jpg (ctrl+u to upload)"
		}
		if i >= fieldSocial {
			in.Placeholder = "https://"
		}
		inputs[i] = in
	}
	inputs[fieldName].Focus()
	return inputs
}

func (s onboardScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s onboardScreen) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		for i := range s.inputs {
			s.inputs[i].Width = max(msg.Width-20, 10)
		}
		return s, nil
	case spinner.TickMsg:
		if !s.busy {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case onboardUploadMsg:
		s.busy = false
		if msg.err == nil {
			s.photo = msg.url
		}
		return s, notify(msg.notice)
	case onboardSubmitMsg:
		return s.handleOutcome(msg.outcome)
	case tea.KeyMsg:
		if s.busy || s.done {
			return s, nil
		}
		switch s.wizard.Current() {
		case onboarding.StepGender:
			return s.updateGender(msg)
		case onboarding.StepDOB:
			return s.updateDOB(msg)
		case onboarding.StepLanguages:
			return s.updateLanguages(msg)
		case onboarding.StepBio:
			return s.updateBio(msg)
		}
		return s, nil
	}

	if s.wizard.Current() == onboarding.StepBio {
		var cmd tea.Cmd
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s onboardScreen) updateGender(key tea.KeyMsg) (screenModel, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if s.genderCursor > 0 {
			s.genderCursor--
		}
	case "down", "j":
		if s.genderCursor < len(onboarding.GenderOptions)-1 {
			s.genderCursor++
		}
	case "enter":
		raw := ""
		if s.genderCursor >= 0 {
			raw = string(onboarding.GenderOptions[s.genderCursor].Value)
		}
		return s.step(onboarding.SubmitGender(s.wizard, raw))
	}
	return s, nil
}

func (s onboardScreen) updateDOB(key tea.KeyMsg) (screenModel, tea.Cmd) {
	switch key.String() {
	case "left", "h", "shift+tab":
		s.dobColumn = (s.dobColumn + 2) % 3
	case "right", "l", "tab":
		s.dobColumn = (s.dobColumn + 1) % 3
	case "up", "k":
		s.shiftDOB(-1)
	case "down", "j":
		s.shiftDOB(1)
	case "enter":
		return s.step(onboarding.SubmitDOB(s.wizard, s.dob))
	}
	return s, nil
}

// shiftDOB moves the focused picker column by delta, wrapping around.
func (s *onboardScreen) shiftDOB(delta int) {
	switch s.dobColumn {
	case 0:
		days := onboarding.DayOptions()
		_ = s.dob.SetDay(days[wrapIndex(s.dob.Day()-1+delta, len(days))])
	case 1:
		idx := 0
		for i, m := range onboarding.Months {
			if m == s.dob.Month() {
				idx = i
			}
		}
		_ = s.dob.SetMonth(onboarding.Months[wrapIndex(idx+delta, len(onboarding.Months))])
	case 2:
		idx := 0
		for i, y := range s.years {
			if y == s.dob.Year() {
				idx = i
			}
		}
		_ = s.dob.SetYear(s.years[wrapIndex(idx+delta, len(s.years))])
	}
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

func (s onboardScreen) updateLanguages(key tea.KeyMsg) (screenModel, tea.Cmd) {
	lang := onboarding.LanguageOptions[s.langCursor]
	switch key.String() {
	case "up", "k":
		if s.langCursor > 0 {
			s.langCursor--
		}
	case "down", "j":
		if s.langCursor < len(onboarding.LanguageOptions)-1 {
			s.langCursor++
		}
	case " ", "x":
		_ = s.languages.Toggle(lang)
		s.message = ""
	case "p":
		if err := s.languages.SetPrimary(lang); err != nil {
			s.message = kerrors.UserMessage(err, "")
		} else {
			s.message = ""
		}
	case "enter":
		return s.step(onboarding.SubmitLanguages(s.wizard, &s.languages))
	}
	return s, nil
}

func (s onboardScreen) updateBio(key tea.KeyMsg) (screenModel, tea.Cmd) {
	switch key.String() {
	case "tab", "down":
		return s.focusInput(s.focus + 1)
	case "shift+tab", "up":
		return s.focusInput(s.focus - 1)
	case "ctrl+u":
		s.busy = true
		ctx, finisher, path := s.ctx, s.finisher, s.inputs[fieldPhoto].Value()
		return s, tea.Batch(s.spinner.Tick, func() tea.Msg {
			url, notice, err := finisher.AttachPhoto(ctx, path)
			return onboardUploadMsg{url: url, notice: notice, err: err}
		})
	case "ctrl+s":
		s.busy = true
		s.message = ""
		ctx, finisher, form := s.ctx, s.finisher, s.bioForm()
		return s, tea.Batch(s.spinner.Tick, func() tea.Msg {
			return onboardSubmitMsg{outcome: finisher.Submit(ctx, form)}
		})
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(key)
	return s, cmd
}

func (s onboardScreen) focusInput(i int) (screenModel, tea.Cmd) {
	s.inputs[s.focus].Blur()
	s.focus = wrapIndex(i, len(s.inputs))
	return s, s.inputs[s.focus].Focus()
}

func (s onboardScreen) bioForm() onboarding.BioForm {
	social := make(map[string]string, len(onboarding.SocialPlatforms))
	for i, platform := range onboarding.SocialPlatforms {
		social[platform] = s.inputs[fieldSocial+i].Value()
	}
	return onboarding.BioForm{
		FullName: s.inputs[fieldName].Value(),
		Bio:      s.inputs[fieldBio].Value(),
		Social:   social,
	}
}

// step shows a validation failure inline and clears it on success.
func (s onboardScreen) step(err error) (screenModel, tea.Cmd) {
	if err != nil {
		s.message = kerrors.UserMessage(err, err.Error())
		return s, nil
	}
	s.message = ""
	return s, nil
}

func (s onboardScreen) handleOutcome(out onboarding.Outcome) (screenModel, tea.Cmd) {
	s.busy = false
	cmds := []tea.Cmd{notify(out.Notice)}
	if out.Route != screen.RouteNone {
		s.done = true
		cmds = append(cmds, navigate(out.Route, 0))
	} else if out.Err != nil && out.Notice.IsZero() {
		s.message = out.Err.Error()
	}
	return s, tea.Batch(cmds...)
}

func (s onboardScreen) View() string {
	current := s.wizard.Current()
	var b strings.Builder
	if idx := current.Index(); idx > 0 {
		b.WriteString(styleGray.Render(fmt.Sprintf("Step %d of %d", idx, len(onboarding.Steps))))
		b.WriteString("\n")
	}

	switch current {
	case onboarding.StepGender:
		b.WriteString(styleBold.Render("What is your gender?") + "\n\n")
		for i, opt := range onboarding.GenderOptions {
			b.WriteString(cursorLine(i == s.genderCursor, opt.Label) + "\n")
		}
	case onboarding.StepDOB:
		b.WriteString(styleBold.Render("When were you born?") + "\n\n")
		cols := []string{fmt.Sprintf("%2d", s.dob.Day()), s.dob.Month(), fmt.Sprintf("%d", s.dob.Year())}
		for i, col := range cols {
			if i == s.dobColumn {
				col = styleSelected.Render("[" + col + "]")
			} else {
				col = " " + col + " "
			}
			b.WriteString(col + "  ")
		}
		b.WriteString("\n")
	case onboarding.StepLanguages:
		b.WriteString(styleBold.Render("Which languages do you speak?") + "\n\n")
		for i, lang := range onboarding.LanguageOptions {
			mark := "[ ]"
			if s.languages.IsSelected(lang) {
				mark = "[x]"
			}
			line := mark + " " + lang
			if s.languages.Primary() == lang {
				line += styleBoldGreen.Render(" (primary)")
			}
			b.WriteString(cursorLine(i == s.langCursor, line) + "\n")
		}
	case onboarding.StepBio:
		avatar := onboarding.AvatarFor(s.wizard.Draft().Gender)
		picture := styleGray.Render("avatar " + avatar.Name)
		if s.photo != "" {
			picture = styleBoldGreen.Render("photo " + s.photo)
		}
		b.WriteString(styleBold.Render("Tell us about yourself") + "  " + picture + "\n\n")
		for _, in := range s.inputs {
			b.WriteString(in.View() + "\n")
		}
	default:
		b.WriteString(styleBoldGreen.Render("All set."))
	}

	if s.busy {
		b.WriteString("\n" + s.spinner.View() + styleGray.Render(" Please wait..."))
	} else if s.message != "" {
		b.WriteString("\n" + styleError.Render(s.message))
	}
	return styleBody.Render(b.String())
}

func cursorLine(active bool, text string) string {
	if active {
		return styleSelected.Render("> " + text)
	}
	return "  " + text
}

func (s onboardScreen) Title() string {
	return "Onboarding | " + s.wizard.Current().Title()
}

func (s onboardScreen) Help() string {
	switch s.wizard.Current() {
	case onboarding.StepGender:
		return "up/down choose | enter next"
	case onboarding.StepDOB:
		return "left/right column | up/down value | enter next"
	case onboarding.StepLanguages:
		return "space toggle | p primary | enter next"
	case onboarding.StepBio:
		return "tab next field | ctrl+u upload photo | ctrl+s save"
	default:
		return ""
	}
}
