package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
	configPath string
	dotEnvPath string
	overrides  Overrides
}

// WithEnv replaces the environment lookup.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithFileReader replaces the function used to read the config and .env files.
func WithFileReader(read func(string) ([]byte, error)) Option {
	return func(o *loadOptions) { o.readFile = read }
}

// WithHomeDir replaces the home directory resolver.
func WithHomeDir(home func() (string, error)) Option {
	return func(o *loadOptions) { o.homeDir = home }
}

// WithConfigPath pins the YAML config file location.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.configPath = path }
}

// WithDotEnvPath sets the .env file consulted after the config file.
func WithDotEnvPath(path string) Option {
	return func(o *loadOptions) { o.dotEnvPath = path }
}

// WithOverrides applies caller values last.
func WithOverrides(overrides Overrides) Option {
	return func(o *loadOptions) { o.overrides = overrides }
}

// Load resolves the runtime configuration: defaults, then the YAML file, then
// .env, then the environment, then caller overrides.
func Load(opts ...Option) (RuntimeConfig, Metadata, error) {
	options := loadOptions{
		envLookup:  DefaultEnvLookup,
		readFile:   os.ReadFile,
		homeDir:    os.UserHomeDir,
		dotEnvPath: ".env",
	}
	for _, opt := range opts {
		opt(&options)
	}

	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}

	cfg := RuntimeConfig{
		APIVersion:          DefaultAPIVersion,
		UploadURL:           DefaultUploadURL,
		StateDir:            DefaultStateDir,
		LogLevel:            DefaultLogLevel,
		HTTPTimeoutSeconds:  DefaultHTTPTimeoutSeconds,
		RedirectDelayMillis: DefaultRedirectDelayMillis,
		RegistrationPolicy:  DefaultRegistrationPolicy,
		Country:             DefaultCountry,
		ProxyMode:           DefaultProxyMode,
		TracingExporter:     DefaultTracingExporter,
	}

	if err := applyFile(&cfg, &meta, options); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}
	if err := applyEnv(&cfg, &meta, options); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}
	applyOverrides(&cfg, &meta, options.overrides)
	normalizeRuntimeConfig(&cfg)

	return cfg, meta, nil
}

func applyOverrides(cfg *RuntimeConfig, meta *Metadata, o Overrides) {
	set := func(field string) { meta.sources[field] = SourceOverride }

	if o.APIBaseURL != nil {
		cfg.APIBaseURL = *o.APIBaseURL
		set("api_base_url")
	}
	if o.APIVersion != nil {
		cfg.APIVersion = *o.APIVersion
		set("api_version")
	}
	if o.UploadURL != nil {
		cfg.UploadURL = *o.UploadURL
		set("upload_url")
	}
	if o.UploadAPIKey != nil {
		cfg.UploadAPIKey = *o.UploadAPIKey
		set("upload_api_key")
	}
	if o.StateDir != nil {
		cfg.StateDir = *o.StateDir
		set("state_dir")
	}
	if o.LogDir != nil {
		cfg.LogDir = *o.LogDir
		set("log_dir")
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
		set("log_level")
	}
	if o.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeoutSeconds = *o.HTTPTimeoutSeconds
		set("http_timeout_seconds")
	}
	if o.RedirectDelayMillis != nil {
		cfg.RedirectDelayMillis = *o.RedirectDelayMillis
		set("redirect_delay_ms")
	}
	if o.RegistrationPolicy != nil {
		cfg.RegistrationPolicy = RegistrationPolicy(*o.RegistrationPolicy)
		set("registration_policy")
	}
	if o.Country != nil {
		cfg.Country = *o.Country
		set("country")
	}
	if o.DisableTUI != nil {
		cfg.DisableTUI = *o.DisableTUI
		set("disable_tui")
	}
	if o.MetricsAddr != nil {
		cfg.MetricsAddr = *o.MetricsAddr
		set("metrics_addr")
	}
	if o.ProxyMode != nil {
		cfg.ProxyMode = *o.ProxyMode
		set("proxy_mode")
	}
	if o.TracingEndpoint != nil {
		cfg.TracingEndpoint = *o.TracingEndpoint
		set("tracing_endpoint")
	}
	if o.TracingExporter != nil {
		cfg.TracingExporter = *o.TracingExporter
		set("tracing_exporter")
	}
}

func normalizeRuntimeConfig(cfg *RuntimeConfig) {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.APIVersion = strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	cfg.UploadURL = strings.TrimSpace(cfg.UploadURL)
	if strings.TrimSpace(cfg.StateDir) == "" {
		cfg.StateDir = DefaultStateDir
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.RegistrationPolicy = RegistrationPolicy(strings.ToLower(strings.TrimSpace(string(cfg.RegistrationPolicy))))
	if cfg.RegistrationPolicy == "" {
		cfg.RegistrationPolicy = DefaultRegistrationPolicy
	}
	cfg.ProxyMode = strings.ToLower(strings.TrimSpace(cfg.ProxyMode))
	if cfg.ProxyMode == "" {
		cfg.ProxyMode = DefaultProxyMode
	}
	cfg.TracingEndpoint = strings.TrimSpace(cfg.TracingEndpoint)
	cfg.TracingExporter = strings.ToLower(strings.TrimSpace(cfg.TracingExporter))
	if cfg.TracingExporter == "" {
		cfg.TracingExporter = DefaultTracingExporter
	}
}

func parseBoolValue(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}
