// Package login runs the two-phase email and OTP sign-in.
package login

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"karmatch/internal/api"
	"karmatch/internal/screen"
	"karmatch/internal/session"
	kerrors "karmatch/internal/shared/errors"
	"karmatch/internal/shared/logging"
)

// State is the form phase. There is no way back from OTPEntry.
type State int

const (
	StateEmailEntry State = iota
	StateOTPEntry
)

func (s State) String() string {
	if s == StateOTPEntry {
		return "otp_entry"
	}
	return "email_entry"
}

var (
	// ErrBusy rejects a submit while another request is in flight.
	ErrBusy = errors.New("login: request in progress")
	// ErrWrongState rejects a submit that does not belong to the current phase.
	ErrWrongState = errors.New("login: action not available in this state")
)

const (
	msgInvalidCredentials      = "Invalid credentials"
	msgInvalidCredentialsLater = "Invalid credentials. Please try again later"
	msgInvalidOTP              = "Invalid OTP"
	msgInvalidOTPLater         = "Invalid OTP. Please try again later"
	msgTryAgain                = "Please try again"
	msgConnectionTitle         = "Connection problem"
	msgCheckConnection         = "Could not reach Karmatch. Check your connection and try again"
)

// Backend is the part of the API client the flow needs.
type Backend interface {
	Login(ctx context.Context, email string) (api.LoginResponse, error)
	VerifyOTP(ctx context.Context, email, otp string) (api.VerifyResponse, error)
}

// Outcome is what a submit produced. Message is the inline error text under
// the form; Notice is the toast. Route is set after a successful
// verification and should be followed once RouteAfter has elapsed.
type Outcome struct {
	State      State
	Notice     screen.Notice
	Message    string
	Route      screen.Route
	RouteAfter time.Duration
	Err        error
}

// Flow is the login state machine.
type Flow struct {
	mu      sync.Mutex
	state   State
	email   string
	busy    bool
	backend Backend
	session *session.Session
	delay   time.Duration
	logger  logging.Logger
}

// NewFlow builds a flow that signs into sess and routes after delay.
func NewFlow(backend Backend, sess *session.Session, delay time.Duration, logger logging.Logger) *Flow {
	return &Flow{backend: backend, session: sess, delay: delay, logger: logging.OrNop(logger)}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a request is in flight.
func (f *Flow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Email returns the address fixed by the first successful submit.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

func (f *Flow) acquire(want State) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return f.state, ErrBusy
	}
	if f.state != want {
		return f.state, ErrWrongState
	}
	f.busy = true
	return f.state, nil
}

func (f *Flow) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

// SubmitEmail requests an OTP for email.
func (f *Flow) SubmitEmail(ctx context.Context, email string) Outcome {
	email = strings.TrimSpace(email)
	if email == "" {
		err := kerrors.NewValidationError("email", "Please enter your email")
		return Outcome{State: f.State(), Message: err.Message, Err: err}
	}
	state, err := f.acquire(StateEmailEntry)
	if err != nil {
		return Outcome{State: state, Err: err}
	}
	defer f.release()

	resp, err := f.backend.Login(ctx, email)
	failure := screen.Error(msgInvalidCredentials, msgTryAgain)
	if err != nil {
		f.logger.Warn("login request failed (%s): %v", kerrors.KindOf(err), err)
		return Outcome{
			State:   StateEmailEntry,
			Notice:  failureNotice(err, failure),
			Message: kerrors.UserMessage(err, msgInvalidCredentialsLater),
			Err:     err,
		}
	}
	if !resp.Success {
		return Outcome{
			State:   StateEmailEntry,
			Notice:  failure,
			Message: msgInvalidCredentials,
			Err:     &kerrors.LogicalError{Op: api.EndpointLogin, Message: resp.Message},
		}
	}

	f.mu.Lock()
	f.email = email
	f.state = StateOTPEntry
	f.mu.Unlock()
	f.logger.Info("otp requested")
	return Outcome{
		State:  StateOTPEntry,
		Notice: screen.Success("OTP sent to your email", "Please check your email for the OTP code"),
	}
}

// SubmitOTP verifies otp for the fixed email and signs in on success.
func (f *Flow) SubmitOTP(ctx context.Context, otp string) Outcome {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		err := kerrors.NewValidationError("otp", "Please enter the OTP")
		return Outcome{State: f.State(), Message: err.Message, Err: err}
	}
	state, err := f.acquire(StateOTPEntry)
	if err != nil {
		return Outcome{State: state, Err: err}
	}
	defer f.release()

	resp, err := f.backend.VerifyOTP(ctx, f.Email(), otp)
	failure := screen.Error(msgInvalidOTP, msgTryAgain)
	if err != nil {
		f.logger.Warn("verify request failed (%s): %v", kerrors.KindOf(err), err)
		return Outcome{
			State:   StateOTPEntry,
			Notice:  failureNotice(err, failure),
			Message: kerrors.UserMessage(err, msgInvalidOTPLater),
			Err:     err,
		}
	}
	if !resp.Success || strings.TrimSpace(resp.Token) == "" {
		return Outcome{
			State:   StateOTPEntry,
			Notice:  failure,
			Message: msgInvalidOTP,
			Err:     &kerrors.LogicalError{Op: api.EndpointVerifyOTP, Message: resp.Message},
		}
	}

	if err := f.session.SignIn(session.Token(resp.Token)); err != nil {
		// the token is held in memory even when it could not be written
		f.logger.Warn("sign in: %v", err)
	}

	route := screen.RouteOnboarding
	if resp.AccountExists {
		route = screen.RouteHome
	}
	return Outcome{
		State:      StateOTPEntry,
		Notice:     screen.Success("Login successful", "Welcome to Karmatch"),
		Route:      route,
		RouteAfter: f.delay,
	}
}

// failureNotice keeps rejected for answers the backend gave and swaps in a
// connection notice when the request never got a usable answer.
func failureNotice(err error, rejected screen.Notice) screen.Notice {
	if kerrors.IsTransient(err) {
		return screen.Error(msgConnectionTitle, msgCheckConnection)
	}
	return rejected
}
