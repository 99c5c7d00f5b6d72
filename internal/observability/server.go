package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"karmatch/internal/shared/logging"
)

// MetricsServer exposes a registry on /metrics.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	logger   logging.Logger
}

// StartMetricsServer listens on addr and serves gatherer in the background.
func StartMetricsServer(addr string, gatherer prometheus.Gatherer, logger logging.Logger) (*MetricsServer, error) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &MetricsServer{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		logger:   logging.OrNop(logger),
	}

	go func() {
		s.logger.Info("metrics listening on %s", listener.Addr())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server: %v", err)
		}
	}()
	return s, nil
}

// Addr returns the bound address.
func (s *MetricsServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
