package main

import (
	"github.com/charmbracelet/lipgloss"

	"karmatch/internal/screen"
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	styleFooter    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	styleGray      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleBold      = lipgloss.NewStyle().Bold(true)
	styleBoldCyan  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleBoldGreen = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleWarning   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	styleBody      = lipgloss.NewStyle().Padding(1, 2)
	styleToast     = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)

func renderNotice(n screen.Notice) string {
	if n.IsZero() {
		return ""
	}
	style := styleToast
	switch n.Kind {
	case screen.NoticeSuccess:
		style = style.BorderForeground(lipgloss.Color("10"))
	case screen.NoticeError:
		style = style.BorderForeground(lipgloss.Color("9"))
	case screen.NoticeWarning:
		style = style.BorderForeground(lipgloss.Color("11"))
	case screen.NoticeInfo:
		style = style.BorderForeground(lipgloss.Color("14"))
	}
	body := styleBold.Render(n.Title)
	if n.Detail != "" {
		if n.Title != "" {
			body += "\n"
		}
		body += n.Detail
	}
	return style.Render(body)
}
