package config

import (
	"net/url"
	"strings"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	ID      string
	Message string
	Hint    string
}

// ValidationReport summarizes runtime config validation findings.
type ValidationReport struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether the validation report contains blocking errors.
func (r ValidationReport) HasErrors() bool {
	return len(r.Errors) > 0
}

// Validate checks the values every network flow depends on.
func Validate(cfg RuntimeConfig) ValidationReport {
	var report ValidationReport

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "api_base_url.missing",
			Message: "api_base_url is not configured",
			Hint:    "set KARMATCH_API_BASE_URL or runtime.api_base_url in " + defaultConfigDir + "/" + defaultConfigName,
		})
	} else if !isHTTPURL(cfg.APIBaseURL) {
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "api_base_url.invalid",
			Message: "api_base_url must be an absolute http(s) URL",
		})
	}

	if !isHTTPURL(cfg.UploadURL) {
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "upload_url.invalid",
			Message: "upload_url must be an absolute http(s) URL",
		})
	}
	if strings.TrimSpace(cfg.UploadAPIKey) == "" {
		report.Warnings = append(report.Warnings, ValidationIssue{
			ID:      "upload_api_key.missing",
			Message: "upload_api_key is empty; profile photo uploads will be rejected",
			Hint:    "set KARMATCH_UPLOAD_API_KEY",
		})
	}

	switch cfg.RegistrationPolicy {
	case RegistrationBlock, RegistrationProceed:
	default:
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "registration_policy.invalid",
			Message: "registration_policy must be \"block\" or \"proceed\"",
		})
	}

	switch cfg.ProxyMode {
	case "", ProxyModeEnv, ProxyModeDirect:
	default:
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "proxy_mode.invalid",
			Message: "proxy_mode must be \"env\" or \"direct\"",
		})
	}

	if cfg.TracingEndpoint != "" && !isHTTPURL(cfg.TracingEndpoint) {
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "tracing_endpoint.invalid",
			Message: "tracing_endpoint must be an absolute http(s) URL",
			Hint:    "e.g. http://localhost:4318 for an OTLP collector",
		})
	}
	switch cfg.TracingExporter {
	case "", TracingExporterOTLP, TracingExporterZipkin:
	default:
		report.Errors = append(report.Errors, ValidationIssue{
			ID:      "tracing_exporter.invalid",
			Message: "tracing_exporter must be \"otlp\" or \"zipkin\"",
		})
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		report.Warnings = append(report.Warnings, ValidationIssue{
			ID:      "http_timeout_seconds.default",
			Message: "http_timeout_seconds is not positive; the default is used",
		})
	}
	return report
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}
