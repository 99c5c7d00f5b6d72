package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// readFileConfig parses the YAML file at path. A missing or empty file yields
// a zero FileConfig.
func readFileConfig(path string, options loadOptions) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	data, err := options.readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return FileConfig{}, nil
	}

	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return FileConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	if parsed.Runtime != nil {
		expandRuntimeFileConfigEnv(options.envLookup, parsed.Runtime)
	}
	return parsed, nil
}

func applyFile(cfg *RuntimeConfig, meta *Metadata, options loadOptions) error {
	path, origin := strings.TrimSpace(options.configPath), ConfigOriginExplicit
	if path == "" {
		path, origin = ResolveConfigPath(options.envLookup, options.homeDir)
	}
	meta.configPath, meta.configOrigin = path, origin

	parsed, err := readFileConfig(path, options)
	if err != nil {
		return err
	}
	file := parsed.Runtime
	if file == nil {
		return nil
	}
	set := func(field string) { meta.sources[field] = SourceFile }

	if file.APIBaseURL != nil {
		cfg.APIBaseURL = *file.APIBaseURL
		set("api_base_url")
	}
	if file.APIVersion != nil {
		cfg.APIVersion = *file.APIVersion
		set("api_version")
	}
	if file.UploadURL != nil {
		cfg.UploadURL = *file.UploadURL
		set("upload_url")
	}
	if file.UploadAPIKey != nil {
		cfg.UploadAPIKey = *file.UploadAPIKey
		set("upload_api_key")
	}
	if file.StateDir != nil {
		cfg.StateDir = *file.StateDir
		set("state_dir")
	}
	if file.LogDir != nil {
		cfg.LogDir = *file.LogDir
		set("log_dir")
	}
	if file.LogLevel != nil {
		cfg.LogLevel = *file.LogLevel
		set("log_level")
	}
	if file.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeoutSeconds = *file.HTTPTimeoutSeconds
		set("http_timeout_seconds")
	}
	if file.RedirectDelayMillis != nil {
		cfg.RedirectDelayMillis = *file.RedirectDelayMillis
		set("redirect_delay_ms")
	}
	if file.RegistrationPolicy != nil {
		cfg.RegistrationPolicy = RegistrationPolicy(*file.RegistrationPolicy)
		set("registration_policy")
	}
	if file.Country != nil {
		cfg.Country = *file.Country
		set("country")
	}
	if file.DisableTUI != nil {
		cfg.DisableTUI = *file.DisableTUI
		set("disable_tui")
	}
	if file.MetricsAddr != nil {
		cfg.MetricsAddr = *file.MetricsAddr
		set("metrics_addr")
	}
	if file.ProxyMode != nil {
		cfg.ProxyMode = *file.ProxyMode
		set("proxy_mode")
	}
	if file.TracingEndpoint != nil {
		cfg.TracingEndpoint = *file.TracingEndpoint
		set("tracing_endpoint")
	}
	if file.TracingExporter != nil {
		cfg.TracingExporter = *file.TracingExporter
		set("tracing_exporter")
	}
	return nil
}

// expandRuntimeFileConfigEnv resolves ${VAR} references in string values so
// secrets such as the upload API key can stay out of the file.
func expandRuntimeFileConfigEnv(lookup EnvLookup, file *RuntimeFileConfig) {
	for _, ptr := range []*string{
		file.APIBaseURL, file.APIVersion, file.UploadURL, file.UploadAPIKey,
		file.StateDir, file.LogDir, file.LogLevel, file.RegistrationPolicy,
		file.Country, file.MetricsAddr, file.ProxyMode, file.TracingEndpoint,
		file.TracingExporter,
	} {
		if ptr != nil {
			*ptr = expandEnvValue(lookup, *ptr)
		}
	}
}

func expandEnvValue(lookup EnvLookup, value string) string {
	if lookup == nil {
		lookup = DefaultEnvLookup
	}
	if !strings.Contains(value, "$") {
		return value
	}
	return os.Expand(value, func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return ""
	})
}
