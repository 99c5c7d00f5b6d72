package login

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmatch/internal/api"
	"karmatch/internal/screen"
	"karmatch/internal/session"
	kerrors "karmatch/internal/shared/errors"
)

type fakeBackend struct {
	mu         sync.Mutex
	login      api.LoginResponse
	loginErr   error
	verify     api.VerifyResponse
	verifyErr  error
	loginCalls []string
	otpCalls   [][2]string
	block      chan struct{}
}

func (f *fakeBackend) Login(ctx context.Context, email string) (api.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls = append(f.loginCalls, email)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.login, f.loginErr
}

func (f *fakeBackend) VerifyOTP(ctx context.Context, email, otp string) (api.VerifyResponse, error) {
	f.mu.Lock()
	f.otpCalls = append(f.otpCalls, [2]string{email, otp})
	f.mu.Unlock()
	return f.verify, f.verifyErr
}

func TestSubmitEmailSuccess(t *testing.T) {
	backend := &fakeBackend{login: api.LoginResponse{Success: true}}
	flow := NewFlow(backend, session.New(nil, nil), time.Second, nil)

	out := flow.SubmitEmail(context.Background(), "  ana@example.com ")
	require.NoError(t, out.Err)
	assert.Equal(t, StateOTPEntry, out.State)
	assert.Equal(t, "OTP sent to your email", out.Notice.Title)
	assert.Equal(t, "ana@example.com", flow.Email())
	assert.False(t, flow.Busy())

	again := flow.SubmitEmail(context.Background(), "other@example.com")
	assert.ErrorIs(t, again.Err, ErrWrongState)
	assert.Equal(t, "ana@example.com", flow.Email())
}

func TestSubmitEmailFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		message string
		title   string
		kind    kerrors.Kind
	}{
		{
			name:    "success false",
			backend: &fakeBackend{login: api.LoginResponse{Success: false}},
			message: "Invalid credentials",
			title:   "Invalid credentials",
			kind:    kerrors.KindLogical,
		},
		{
			name:    "http error with server message",
			backend: &fakeBackend{loginErr: &kerrors.TransportError{Op: "login", StatusCode: 404, Message: "User not found"}},
			message: "User not found",
			title:   "Invalid credentials",
			kind:    kerrors.KindTransport,
		},
		{
			name:    "network error",
			backend: &fakeBackend{loginErr: &kerrors.TransportError{Op: "login", Err: errors.New("connection refused")}},
			message: "Invalid credentials. Please try again later",
			title:   "Connection problem",
			kind:    kerrors.KindTransport,
		},
		{
			name:    "server unavailable",
			backend: &fakeBackend{loginErr: &kerrors.TransportError{Op: "login", StatusCode: 503}},
			message: "Invalid credentials. Please try again later",
			title:   "Connection problem",
			kind:    kerrors.KindTransport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := NewFlow(tt.backend, session.New(nil, nil), 0, nil)
			out := flow.SubmitEmail(context.Background(), "ana@example.com")
			assert.Equal(t, StateEmailEntry, out.State)
			assert.Equal(t, StateEmailEntry, flow.State())
			assert.Equal(t, screen.NoticeError, out.Notice.Kind)
			assert.Equal(t, tt.title, out.Notice.Title)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, tt.kind, kerrors.KindOf(out.Err))
			assert.Empty(t, flow.Email())
		})
	}
}

func TestSubmitValidatesLocally(t *testing.T) {
	backend := &fakeBackend{}
	flow := NewFlow(backend, session.New(nil, nil), 0, nil)

	out := flow.SubmitEmail(context.Background(), "   ")
	assert.Equal(t, kerrors.KindValidation, kerrors.KindOf(out.Err))
	out = flow.SubmitOTP(context.Background(), "")
	assert.Equal(t, kerrors.KindValidation, kerrors.KindOf(out.Err))
	assert.Empty(t, backend.loginCalls)
	assert.Empty(t, backend.otpCalls)
}

func TestSubmitOTPBeforeEmail(t *testing.T) {
	flow := NewFlow(&fakeBackend{}, session.New(nil, nil), 0, nil)
	out := flow.SubmitOTP(context.Background(), "123456")
	assert.ErrorIs(t, out.Err, ErrWrongState)
}

func TestSubmitOTPNewAccount(t *testing.T) {
	backend := &fakeBackend{
		login:  api.LoginResponse{Success: true},
		verify: api.VerifyResponse{Success: true, Token: "abc", AccountExists: false},
	}
	sess := session.New(nil, nil)
	flow := NewFlow(backend, sess, time.Second, nil)
	require.NoError(t, flow.SubmitEmail(context.Background(), "ana@example.com").Err)

	out := flow.SubmitOTP(context.Background(), "123456")
	require.NoError(t, out.Err)
	assert.Equal(t, screen.RouteOnboarding, out.Route)
	assert.Equal(t, time.Second, out.RouteAfter)
	assert.Equal(t, "Login successful", out.Notice.Title)

	token, ok := sess.Token()
	require.True(t, ok)
	assert.Equal(t, session.Token("abc"), token)
	assert.Equal(t, [][2]string{{"ana@example.com", "123456"}}, backend.otpCalls)
}

func TestSubmitOTPExistingAccount(t *testing.T) {
	backend := &fakeBackend{
		login:  api.LoginResponse{Success: true},
		verify: api.VerifyResponse{Success: true, Token: "abc", AccountExists: true},
	}
	flow := NewFlow(backend, session.New(nil, nil), 0, nil)
	flow.SubmitEmail(context.Background(), "ana@example.com")

	out := flow.SubmitOTP(context.Background(), "1")
	assert.Equal(t, screen.RouteHome, out.Route)
}

func TestSubmitOTPFailureStaysInOTPEntry(t *testing.T) {
	backend := &fakeBackend{
		login:  api.LoginResponse{Success: true},
		verify: api.VerifyResponse{Success: false},
	}
	sess := session.New(nil, nil)
	flow := NewFlow(backend, sess, 0, nil)
	flow.SubmitEmail(context.Background(), "ana@example.com")

	out := flow.SubmitOTP(context.Background(), "000000")
	assert.Equal(t, StateOTPEntry, out.State)
	assert.Equal(t, "Invalid OTP", out.Message)
	assert.Equal(t, "Invalid OTP", out.Notice.Title)
	assert.Equal(t, screen.RouteNone, out.Route)
	_, ok := sess.Token()
	assert.False(t, ok)

	backend.verify = api.VerifyResponse{}
	backend.verifyErr = &kerrors.TransportError{Op: "verify_otp", StatusCode: 502}
	out = flow.SubmitOTP(context.Background(), "000000")
	assert.Equal(t, "Invalid OTP. Please try again later", out.Message)
	assert.Equal(t, "Connection problem", out.Notice.Title)

	backend.verifyErr = &kerrors.TransportError{Op: "verify_otp", StatusCode: 400, Message: "OTP expired"}
	out = flow.SubmitOTP(context.Background(), "000000")
	assert.Equal(t, "OTP expired", out.Message)
	assert.Equal(t, "Invalid OTP", out.Notice.Title)
}

func TestBusyRejectsConcurrentSubmit(t *testing.T) {
	backend := &fakeBackend{login: api.LoginResponse{Success: true}, block: make(chan struct{})}
	flow := NewFlow(backend, session.New(nil, nil), 0, nil)

	done := make(chan Outcome, 1)
	go func() { done <- flow.SubmitEmail(context.Background(), "ana@example.com") }()

	require.Eventually(t, flow.Busy, time.Second, time.Millisecond)
	out := flow.SubmitEmail(context.Background(), "ana@example.com")
	assert.ErrorIs(t, out.Err, ErrBusy)

	close(backend.block)
	first := <-done
	require.NoError(t, first.Err)
	assert.False(t, flow.Busy())
	assert.Len(t, backend.loginCalls, 1)
}
