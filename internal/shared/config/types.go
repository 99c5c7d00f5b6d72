package config

import (
	"os"
	"time"
)

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault  ValueSource = "default"
	SourceFile     ValueSource = "file"
	SourceDotEnv   ValueSource = "dotenv"
	SourceEnv      ValueSource = "environment"
	SourceOverride ValueSource = "override"
)

// RegistrationPolicy decides what the onboarding wizard does when the
// registration call fails.
type RegistrationPolicy string

const (
	// RegistrationBlock keeps the user on the bio step so the submission can be retried.
	RegistrationBlock RegistrationPolicy = "block"
	// RegistrationProceed navigates home regardless of the outcome.
	RegistrationProceed RegistrationPolicy = "proceed"
)

// Proxy modes accepted by proxy_mode.
const (
	ProxyModeEnv    = "env"
	ProxyModeDirect = "direct"
)

// Trace exporters accepted by tracing_exporter.
const (
	TracingExporterOTLP   = "otlp"
	TracingExporterZipkin = "zipkin"
)

const (
	DefaultAPIVersion          = "v1"
	DefaultUploadURL           = "https://files-public.coffeecodes.in/upload"
	DefaultStateDir            = "~/.karmatch"
	DefaultLogLevel            = "info"
	DefaultHTTPTimeoutSeconds  = 30
	DefaultRedirectDelayMillis = 1000
	DefaultCountry             = "India"
	DefaultRegistrationPolicy  = RegistrationBlock
	DefaultProxyMode           = ProxyModeEnv
	DefaultTracingExporter     = TracingExporterOTLP
)

// RuntimeConfig is the resolved client configuration.
type RuntimeConfig struct {
	APIBaseURL          string             `json:"api_base_url" yaml:"api_base_url"`
	APIVersion          string             `json:"api_version" yaml:"api_version"`
	UploadURL           string             `json:"upload_url" yaml:"upload_url"`
	UploadAPIKey        string             `json:"upload_api_key" yaml:"upload_api_key"`
	StateDir            string             `json:"state_dir" yaml:"state_dir"`
	LogDir              string             `json:"log_dir" yaml:"log_dir"`
	LogLevel            string             `json:"log_level" yaml:"log_level"`
	HTTPTimeoutSeconds  int                `json:"http_timeout_seconds" yaml:"http_timeout_seconds"`
	RedirectDelayMillis int                `json:"redirect_delay_ms" yaml:"redirect_delay_ms"`
	RegistrationPolicy  RegistrationPolicy `json:"registration_policy" yaml:"registration_policy"`
	Country             string             `json:"country" yaml:"country"`
	DisableTUI          bool               `json:"disable_tui" yaml:"disable_tui"`
	MetricsAddr         string             `json:"metrics_addr" yaml:"metrics_addr"`
	ProxyMode           string             `json:"proxy_mode" yaml:"proxy_mode"`
	TracingEndpoint     string             `json:"tracing_endpoint" yaml:"tracing_endpoint"`
	TracingExporter     string             `json:"tracing_exporter" yaml:"tracing_exporter"`
}

// HTTPTimeout returns the outbound request timeout.
func (c RuntimeConfig) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeoutSeconds * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// RedirectDelay returns the pause between a successful OTP verification and
// the navigation that follows it.
func (c RuntimeConfig) RedirectDelay() time.Duration {
	if c.RedirectDelayMillis < 0 {
		return 0
	}
	return time.Duration(c.RedirectDelayMillis) * time.Millisecond
}

// FileConfig mirrors the YAML config file layout.
type FileConfig struct {
	Runtime *RuntimeFileConfig `yaml:"runtime"`
}

// RuntimeFileConfig holds the optional runtime section of the config file.
type RuntimeFileConfig struct {
	APIBaseURL          *string `yaml:"api_base_url"`
	APIVersion          *string `yaml:"api_version"`
	UploadURL           *string `yaml:"upload_url"`
	UploadAPIKey        *string `yaml:"upload_api_key"`
	StateDir            *string `yaml:"state_dir"`
	LogDir              *string `yaml:"log_dir"`
	LogLevel            *string `yaml:"log_level"`
	HTTPTimeoutSeconds  *int    `yaml:"http_timeout_seconds"`
	RedirectDelayMillis *int    `yaml:"redirect_delay_ms"`
	RegistrationPolicy  *string `yaml:"registration_policy"`
	Country             *string `yaml:"country"`
	DisableTUI          *bool   `yaml:"disable_tui"`
	MetricsAddr         *string `yaml:"metrics_addr"`
	ProxyMode           *string `yaml:"proxy_mode"`
	TracingEndpoint     *string `yaml:"tracing_endpoint"`
	TracingExporter     *string `yaml:"tracing_exporter"`
}

// Overrides conveys caller-specified values that win over env/file sources.
type Overrides struct {
	APIBaseURL          *string
	APIVersion          *string
	UploadURL           *string
	UploadAPIKey        *string
	StateDir            *string
	LogDir              *string
	LogLevel            *string
	HTTPTimeoutSeconds  *int
	RedirectDelayMillis *int
	RegistrationPolicy  *string
	Country             *string
	DisableTUI          *bool
	MetricsAddr         *string
	ProxyMode           *string
	TracingEndpoint     *string
	TracingExporter     *string
}

// Metadata records where each value came from.
type Metadata struct {
	sources      map[string]ValueSource
	configPath   string
	configOrigin ConfigOrigin
	loadedAt     time.Time
}

// Source reports the provenance of field, defaulting to SourceDefault.
func (m Metadata) Source(field string) ValueSource {
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

// ConfigPath returns the config file path consulted during Load.
func (m Metadata) ConfigPath() string {
	return m.configPath
}

// ConfigOrigin says how ConfigPath was chosen.
func (m Metadata) ConfigOrigin() ConfigOrigin {
	return m.configOrigin
}

// LoadedAt returns the timestamp when the configuration was constructed.
func (m Metadata) LoadedAt() time.Time {
	return m.loadedAt
}

// EnvLookup resolves the value for an environment variable.
type EnvLookup func(string) (string, bool)

// DefaultEnvLookup reads the process environment.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
