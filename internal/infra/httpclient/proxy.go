package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"karmatch/internal/shared/logging"
)

// ProxyMode selects how outbound requests pick a proxy.
type ProxyMode string

const (
	// ProxyEnvironment honours HTTP(S)_PROXY/NO_PROXY, except for loopback targets.
	ProxyEnvironment ProxyMode = "env"
	// ProxyDirect never uses a proxy.
	ProxyDirect ProxyMode = "direct"
)

// ParseProxyMode maps the proxy_mode setting onto a ProxyMode. Empty means env.
func ParseProxyMode(raw string) (ProxyMode, error) {
	switch mode := ProxyMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", ProxyEnvironment:
		return ProxyEnvironment, nil
	case ProxyDirect:
		return ProxyDirect, nil
	default:
		return "", fmt.Errorf("unknown proxy mode %q", raw)
	}
}

func proxyFunc(mode ProxyMode, logger logging.Logger) func(*http.Request) (*url.URL, error) {
	log := logging.OrNop(logger)

	return func(req *http.Request) (*url.URL, error) {
		if mode == ProxyDirect {
			return nil, nil
		}
		if req == nil || req.URL == nil {
			return http.ProxyFromEnvironment(req)
		}
		// A backend on the developer's machine is never reached through a proxy.
		if isLoopbackHost(req.URL.Hostname()) {
			return nil, nil
		}
		proxyURL, err := http.ProxyFromEnvironment(req)
		if err != nil {
			log.Warn("proxy lookup failed for %s: %v", req.URL.Host, err)
		}
		return proxyURL, err
	}
}

func isLoopbackHost(host string) bool {
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsUnspecified()
}
