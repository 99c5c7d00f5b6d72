package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"karmatch/internal/api"
	"karmatch/internal/chat"
	"karmatch/internal/login"
	"karmatch/internal/onboarding"
	"karmatch/internal/session"
)

var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu sync.Mutex

	loginResp  api.LoginResponse
	loginErr   error
	verifyResp api.VerifyResponse
	verifyErr  error

	registerResp api.RegisterResponse
	registerErr  error
	registered   []api.RegisterRequest

	reply    api.ConversationResponse
	replyErr error
	sent     []string
}

func (f *fakeBackend) Login(context.Context, string) (api.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) VerifyOTP(context.Context, string, string) (api.VerifyResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeBackend) Register(_ context.Context, _ session.Token, req api.RegisterRequest) (api.RegisterResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, req)
	return f.registerResp, f.registerErr
}

func (f *fakeBackend) Converse(_ context.Context, _ session.Token, message string) (api.ConversationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return f.reply, f.replyErr
}

func emailToken(t *testing.T, email string) session.Token {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": email}).SignedString([]byte("test"))
	require.NoError(t, err)
	return session.Token(raw)
}

// testDeps wires the screens to backend with an in-memory session and
// transcript.
func testDeps(backend *fakeBackend, sess *session.Session, store chat.Store) appDeps {
	return appDeps{
		ctx:     context.Background(),
		session: sess,
		newLogin: func() (*login.Flow, error) {
			return login.NewFlow(backend, sess, 0, nil), nil
		},
		newWizard: func() (*onboarding.Wizard, *onboarding.Finisher, error) {
			w := onboarding.NewWizard(nil)
			return w, &onboarding.Finisher{
				Wizard:    w,
				Session:   sess,
				Registrar: backend,
				Country:   "India",
				Now:       func() time.Time { return fixedNow },
				Suffix:    func() int { return 123456 },
			}, nil
		},
		newChat: func() (*chat.Controller, error) {
			return chat.NewController(store, backend, nil), nil
		},
		now: func() time.Time { return fixedNow },
	}
}
