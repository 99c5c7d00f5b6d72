package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "KARMATCH_"

// envField binds an environment variable to a RuntimeConfig field.
type envField struct {
	field string
	env   string
	apply func(cfg *RuntimeConfig, value string) error
}

func stringField(field string, target func(*RuntimeConfig) *string) envField {
	return envField{
		field: field,
		env:   envPrefix + strings.ToUpper(field),
		apply: func(cfg *RuntimeConfig, value string) error {
			*target(cfg) = value
			return nil
		},
	}
}

func intField(field string, target func(*RuntimeConfig) *int) envField {
	env := envPrefix + strings.ToUpper(field)
	return envField{
		field: field,
		env:   env,
		apply: func(cfg *RuntimeConfig, value string) error {
			parsed, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("parse %s: %w", env, err)
			}
			*target(cfg) = parsed
			return nil
		},
	}
}

var envFields = []envField{
	stringField("api_base_url", func(c *RuntimeConfig) *string { return &c.APIBaseURL }),
	stringField("api_version", func(c *RuntimeConfig) *string { return &c.APIVersion }),
	stringField("upload_url", func(c *RuntimeConfig) *string { return &c.UploadURL }),
	stringField("upload_api_key", func(c *RuntimeConfig) *string { return &c.UploadAPIKey }),
	stringField("state_dir", func(c *RuntimeConfig) *string { return &c.StateDir }),
	stringField("log_dir", func(c *RuntimeConfig) *string { return &c.LogDir }),
	stringField("log_level", func(c *RuntimeConfig) *string { return &c.LogLevel }),
	stringField("country", func(c *RuntimeConfig) *string { return &c.Country }),
	stringField("metrics_addr", func(c *RuntimeConfig) *string { return &c.MetricsAddr }),
	stringField("proxy_mode", func(c *RuntimeConfig) *string { return &c.ProxyMode }),
	stringField("tracing_endpoint", func(c *RuntimeConfig) *string { return &c.TracingEndpoint }),
	stringField("tracing_exporter", func(c *RuntimeConfig) *string { return &c.TracingExporter }),
	intField("http_timeout_seconds", func(c *RuntimeConfig) *int { return &c.HTTPTimeoutSeconds }),
	intField("redirect_delay_ms", func(c *RuntimeConfig) *int { return &c.RedirectDelayMillis }),
	{
		field: "registration_policy",
		env:   envPrefix + "REGISTRATION_POLICY",
		apply: func(cfg *RuntimeConfig, value string) error {
			cfg.RegistrationPolicy = RegistrationPolicy(value)
			return nil
		},
	},
	{
		field: "disable_tui",
		env:   envPrefix + "DISABLE_TUI",
		apply: func(cfg *RuntimeConfig, value string) error {
			parsed, err := parseBoolValue(value)
			if err != nil {
				return fmt.Errorf("parse %sDISABLE_TUI: %w", envPrefix, err)
			}
			cfg.DisableTUI = parsed
			return nil
		},
	},
}

// applyEnv applies .env values first and then the real environment, so an
// exported variable always beats the file.
func applyEnv(cfg *RuntimeConfig, meta *Metadata, opts loadOptions) error {
	lookup := opts.envLookup
	if lookup == nil {
		lookup = DefaultEnvLookup
	}

	dotEnv, err := readDotEnv(opts)
	if err != nil {
		return err
	}

	for _, f := range envFields {
		if value, ok := lookup(f.env); ok && strings.TrimSpace(value) != "" {
			if err := f.apply(cfg, value); err != nil {
				return err
			}
			meta.sources[f.field] = SourceEnv
			continue
		}
		if value, ok := dotEnv[f.env]; ok && strings.TrimSpace(value) != "" {
			if err := f.apply(cfg, value); err != nil {
				return fmt.Errorf("%s: %w", opts.dotEnvPath, err)
			}
			meta.sources[f.field] = SourceDotEnv
		}
	}
	return nil
}

func readDotEnv(opts loadOptions) (map[string]string, error) {
	path := strings.TrimSpace(opts.dotEnvPath)
	if path == "" || opts.readFile == nil {
		return nil, nil
	}
	data, err := opts.readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}
