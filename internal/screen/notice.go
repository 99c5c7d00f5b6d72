// Package screen holds the small vocabulary shared by the flows and the front
// ends: transient notices and navigation routes.
package screen

import "time"

// NoticeKind selects how a notice is styled.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeWarning NoticeKind = "warning"
	NoticeInfo    NoticeKind = "info"
)

// DefaultNoticeTTL is how long a toast stays visible in the TUI.
const DefaultNoticeTTL = 3 * time.Second

// Notice is a transient, non-blocking message shown to the user.
type Notice struct {
	Kind   NoticeKind
	Title  string
	Detail string
}

// IsZero reports whether n carries nothing to show.
func (n Notice) IsZero() bool {
	return n.Title == "" && n.Detail == ""
}

// Text joins title and detail for single-line renderers.
func (n Notice) Text() string {
	switch {
	case n.Title == "":
		return n.Detail
	case n.Detail == "":
		return n.Title
	default:
		return n.Title + ": " + n.Detail
	}
}

func Success(title, detail string) Notice {
	return Notice{Kind: NoticeSuccess, Title: title, Detail: detail}
}

func Error(title, detail string) Notice {
	return Notice{Kind: NoticeError, Title: title, Detail: detail}
}

func Warning(title, detail string) Notice {
	return Notice{Kind: NoticeWarning, Title: title, Detail: detail}
}

func Info(title, detail string) Notice {
	return Notice{Kind: NoticeInfo, Title: title, Detail: detail}
}

// Route names a navigation target outside the current flow.
type Route string

const (
	RouteNone       Route = ""
	RouteHome       Route = "home"
	RouteOnboarding Route = "onboarding"
	RouteLogin      Route = "login"
	RouteChat       Route = "chat"
)
