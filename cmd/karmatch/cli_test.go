package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmatch/internal/screen"
	"karmatch/internal/session"
	"karmatch/internal/shared/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"KARMATCH_CONFIG_PATH", "KARMATCH_API_BASE_URL", "KARMATCH_STATE_DIR",
		"KARMATCH_LOG_LEVEL", "KARMATCH_REGISTRATION_POLICY", "KARMATCH_DISABLE_TUI",
		"KARMATCH_METRICS_ADDR", "KARMATCH_LOG_DIR", "KARMATCH_UPLOAD_API_KEY", "KARMATCH_UPLOAD_URL",
		"KARMATCH_API_VERSION", "KARMATCH_COUNTRY", "KARMATCH_HTTP_TIMEOUT_SECONDS", "KARMATCH_REDIRECT_DELAY_MS",
		"KARMATCH_PROXY_MODE", "KARMATCH_TRACING_ENDPOINT", "KARMATCH_TRACING_EXPORTER",
	} {
		t.Setenv(key, "")
	}
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := NewRootCommand(streams{In: strings.NewReader(""), Out: out, Err: out})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigShowReportsSources(t *testing.T) {
	home := isolateEnv(t)
	cfgPath := filepath.Join(home, "karmatch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("runtime:\n  api_base_url: https://api.example.com\n  upload_api_key: abcdef123\n"), 0o600))

	out, err := runCLI(t, "config", "show", "--config", cfgPath, "--registration-policy", "proceed")
	require.NoError(t, err)

	assert.Contains(t, out, cfgPath+" [flag]")
	assert.Contains(t, out, "Loaded at:")
	assert.Contains(t, out, "https://api.example.com")
	assert.Contains(t, out, "[file]")
	assert.Contains(t, out, "proceed")
	assert.Contains(t, out, "[override]")
	assert.Contains(t, out, "ab****23")
	assert.NotContains(t, out, "abcdef123")
}

func TestConfigPathDefaultsToHome(t *testing.T) {
	home := isolateEnv(t)

	out, err := runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".karmatch", "config.yaml"), strings.TrimSpace(out))
}

func TestConfigValidateFailsWithoutBaseURL(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "error:")
}

func TestLogoutRemovesSession(t *testing.T) {
	home := isolateEnv(t)
	stateDir := filepath.Join(home, "state")
	sess := session.New(session.NewFileStore(filepath.Join(stateDir, session.FileName)), nil)
	require.NoError(t, sess.SignIn("tok"))

	out, err := runCLI(t, "logout", "--state-dir", stateDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	_, err = os.Stat(filepath.Join(stateDir, session.FileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRequiresBaseURL(t *testing.T) {
	home := isolateEnv(t)

	_, err := runCLI(t, "chat", "--state-dir", filepath.Join(home, "state"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KARMATCH_API_BASE_URL")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("KARMATCH_API_BASE_URL", "https://api.example.com")
	t.Setenv("KARMATCH_REGISTRATION_POLICY", "procede")
	stateDir := filepath.Join(home, "state")

	_, err := runCLI(t, "chat", "--state-dir", stateDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration_policy")

	// signing out never depends on the flow settings
	out, err := runCLI(t, "logout", "--state-dir", stateDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
}

func TestContainerWiresTransportSettings(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("KARMATCH_API_BASE_URL", "https://api.example.com")
	t.Setenv("KARMATCH_PROXY_MODE", "direct")

	c, err := buildContainer(config.WithDotEnvPath(""), config.WithOverrides(config.Overrides{
		StateDir: ptr(filepath.Join(home, "state")),
	}))
	require.NoError(t, err)
	defer c.Cleanup()

	require.NoError(t, c.Ready())
	assert.Equal(t, config.ProxyModeDirect, c.Runtime.ProxyMode)
	assert.NotNil(t, c.tracing)
	_, err = c.API()
	assert.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func TestLoadOptionsOnlyOverridesSetFlags(t *testing.T) {
	isolateEnv(t)
	opts := &cliOptions{
		streams: streams{In: strings.NewReader(""), Out: &bytes.Buffer{}, Err: &bytes.Buffer{}},
		viper:   viper.New(),
	}
	root := newRootCommand(opts)
	require.NoError(t, root.ParseFlags([]string{"--no-tui", "--log-level", "debug"}))

	cfg, meta, err := config.Load(opts.loadOptions()...)
	require.NoError(t, err)

	assert.True(t, cfg.DisableTUI)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.SourceOverride, meta.Source("log_level"))
	assert.Equal(t, config.SourceDefault, meta.Source("registration_policy"))
}

func TestStartRoute(t *testing.T) {
	signedOut := session.New(nil, nil)
	signedIn := session.New(nil, nil)
	require.NoError(t, signedIn.SignIn("tok"))

	assert.Equal(t, screen.RouteLogin, startRoute(screen.RouteNone, signedOut))
	assert.Equal(t, screen.RouteLogin, startRoute(screen.RouteChat, signedOut))
	assert.Equal(t, screen.RouteLogin, startRoute(screen.RouteOnboarding, signedOut))
	assert.Equal(t, screen.RouteChat, startRoute(screen.RouteNone, signedIn))
	assert.Equal(t, screen.RouteOnboarding, startRoute(screen.RouteOnboarding, signedIn))
	assert.Equal(t, screen.RouteLogin, startRoute(screen.RouteLogin, signedIn))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abcd"))
	assert.Equal(t, "se****et", maskSecret("secret-secret"))
}
