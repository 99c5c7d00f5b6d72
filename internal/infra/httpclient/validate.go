package httpclient

import (
	"fmt"
	"net/url"
	"strings"
)

// EndpointOptions controls endpoint validation rules.
type EndpointOptions struct {
	// AllowInsecureHTTP permits plain http to non-loopback hosts.
	AllowInsecureHTTP bool
}

// ValidateEndpoint ensures raw is an absolute http(s) URL. Plain http is only
// accepted for loopback hosts unless opts allow it, since bearer tokens travel
// on these requests.
func ValidateEndpoint(raw string, opts EndpointOptions) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme: %q", scheme)
	}
	host := strings.TrimSpace(parsed.Hostname())
	if host == "" {
		return nil, fmt.Errorf("url host is required")
	}
	if scheme == "http" && !opts.AllowInsecureHTTP && !isLoopbackHost(host) {
		return nil, fmt.Errorf("plain http is only allowed for local hosts: %s", host)
	}
	return parsed, nil
}
