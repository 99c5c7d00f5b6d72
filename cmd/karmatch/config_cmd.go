package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"karmatch/internal/shared/config"
)

func newConfigCommand(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show resolved values and where they came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, meta, err := config.Load(opts.loadOptions()...)
			if err != nil {
				return err
			}
			printConfig(opts.streams.Out, cfg, meta)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, meta, err := config.Load(opts.loadOptions()...)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.streams.Out, meta.ConfigPath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(opts.loadOptions()...)
			if err != nil {
				return err
			}
			report := config.Validate(cfg)
			printReport(opts.streams.Out, report)
			if report.HasErrors() {
				return fmt.Errorf("configuration has %d error(s)", len(report.Errors))
			}
			return nil
		},
	})
	return cmd
}

type configRow struct {
	key   string
	value string
}

func configRows(cfg config.RuntimeConfig) []configRow {
	return []configRow{
		{"api_base_url", cfg.APIBaseURL},
		{"api_version", cfg.APIVersion},
		{"upload_url", cfg.UploadURL},
		{"upload_api_key", maskSecret(cfg.UploadAPIKey)},
		{"state_dir", cfg.StateDir},
		{"log_dir", cfg.LogDir},
		{"log_level", cfg.LogLevel},
		{"http_timeout_seconds", strconv.Itoa(cfg.HTTPTimeoutSeconds)},
		{"redirect_delay_ms", strconv.Itoa(cfg.RedirectDelayMillis)},
		{"registration_policy", string(cfg.RegistrationPolicy)},
		{"country", cfg.Country},
		{"disable_tui", strconv.FormatBool(cfg.DisableTUI)},
		{"metrics_addr", cfg.MetricsAddr},
		{"proxy_mode", cfg.ProxyMode},
		{"tracing_endpoint", cfg.TracingEndpoint},
		{"tracing_exporter", cfg.TracingExporter},
	}
}

func printConfig(w io.Writer, cfg config.RuntimeConfig, meta config.Metadata) {
	fmt.Fprintf(w, "%s %s %s\n", bold("Config file:"), meta.ConfigPath(), gray("["+string(meta.ConfigOrigin())+"]"))
	fmt.Fprintf(w, "%s %s\n\n", bold("Loaded at:  "), meta.LoadedAt().Format(time.RFC3339))
	for _, row := range configRows(cfg) {
		value := row.value
		if value == "" {
			value = gray("(unset)")
		}
		fmt.Fprintf(w, "  %-22s %s %s\n", cyan(row.key), value, gray("["+string(meta.Source(row.key))+"]"))
	}
}

func printReport(w io.Writer, report config.ValidationReport) {
	if !report.HasErrors() && len(report.Warnings) == 0 {
		fmt.Fprintln(w, green("Configuration looks good."))
		return
	}
	for _, issue := range report.Errors {
		fmt.Fprintf(w, "%s %s\n", red("error:"), issue.Message)
		if issue.Hint != "" {
			fmt.Fprintf(w, "       %s\n", gray(issue.Hint))
		}
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(w, "%s %s\n", yellow("warning:"), issue.Message)
		if issue.Hint != "" {
			fmt.Fprintf(w, "         %s\n", gray(issue.Hint))
		}
	}
}

func maskSecret(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 4:
		return "****"
	default:
		return value[:2] + "****" + value[len(value)-2:]
	}
}
