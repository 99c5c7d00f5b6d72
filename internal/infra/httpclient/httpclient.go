// Package httpclient builds the single http.Client shared by the backend API
// and the photo upload service.
package httpclient

import (
	"net/http"
	"time"

	"karmatch/internal/shared/logging"
)

const (
	defaultTimeout = 30 * time.Second

	// A terminal session talks to two hosts at most.
	maxIdleConnsPerHost = 2
	idleConnTimeout     = 90 * time.Second
)

// New returns the client every backend and upload call goes through. timeout
// bounds a whole request including the body read, so a stalled chat reply
// surfaces as a transport error instead of a spinner that never stops. mode
// comes from the proxy_mode setting.
func New(timeout time.Duration, mode ProxyMode, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var transport *http.Transport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = base.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.Proxy = proxyFunc(mode, logger)
	transport.MaxIdleConnsPerHost = maxIdleConnsPerHost
	transport.IdleConnTimeout = idleConnTimeout

	return &http.Client{Timeout: timeout, Transport: transport}
}
