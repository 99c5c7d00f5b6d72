package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"karmatch/internal/api"
	"karmatch/internal/chat"
	"karmatch/internal/chat/history"
	"karmatch/internal/infra/filestore"
	"karmatch/internal/infra/httpclient"
	"karmatch/internal/login"
	"karmatch/internal/observability"
	"karmatch/internal/onboarding"
	"karmatch/internal/session"
	"karmatch/internal/shared/config"
	"karmatch/internal/shared/logging"
	"karmatch/internal/upload"
)

// Container wires the client from the resolved configuration.
type Container struct {
	Runtime  config.RuntimeConfig
	Meta     config.Metadata
	Report   config.ValidationReport
	StateDir string

	Logs     *logging.Root
	Session  *session.Session
	History  *history.FileStore
	Observer observability.Observer

	api     *api.Client
	apiErr  error
	upload  *upload.Client
	metrics *observability.MetricsServer
	tracing *observability.TracerProvider
	logger  logging.Logger
}

func buildContainer(opts ...config.Option) (*Container, error) {
	cfg, meta, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	stateDir := filestore.ResolvePath(cfg.StateDir, config.DefaultStateDir)
	if err := filestore.EnsureDir(stateDir); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	logDir := filestore.ResolvePath(cfg.LogDir, filepath.Join(stateDir, "logs"))

	logs, err := logging.NewRoot(logging.Config{Dir: logDir, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}
	logger := logs.Component("app")

	c := &Container{
		Runtime:  cfg,
		Meta:     meta,
		Report:   config.Validate(cfg),
		StateDir: stateDir,
		Logs:     logs,
		logger:   logger,
	}

	for _, issue := range c.Report.Errors {
		logger.Error("config: %s", issue.Message)
	}
	for _, issue := range c.Report.Warnings {
		logger.Warn("config: %s", issue.Message)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	observer, err := observability.NewPrometheusObserver("karmatch", registry)
	if err != nil {
		return nil, err
	}
	c.Observer = observer
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		server, err := observability.StartMetricsServer(addr, registry, logs.Component("metrics"))
		if err != nil {
			logger.Warn("metrics listener disabled: %v", err)
		} else {
			c.metrics = server
		}
	}

	c.Session = session.New(session.NewFileStore(filepath.Join(stateDir, session.FileName)), logs.Component("session"))
	if err := c.Session.Restore(); err != nil {
		// a corrupt session file only means signing in again
		logger.Warn("%v", err)
	}
	c.History = history.NewFileStore(stateDir, logs.Component("history"))

	tracing, err := observability.NewTracerProvider(observability.TracingConfig{
		Endpoint:       cfg.TracingEndpoint,
		Exporter:       cfg.TracingExporter,
		ServiceName:    "karmatch",
	})
	if err != nil {
		logger.Warn("tracing disabled: %v", err)
		tracing, _ = observability.NewTracerProvider(observability.TracingConfig{})
	} else if cfg.TracingEndpoint != "" {
		logger.Info("exporting traces to %s (%s)", cfg.TracingEndpoint, cfg.TracingExporter)
	}
	c.tracing = tracing

	proxyMode, err := httpclient.ParseProxyMode(cfg.ProxyMode)
	if err != nil {
		logger.Warn("%v; using environment proxies", err)
		proxyMode = httpclient.ProxyEnvironment
	}
	httpClient := httpclient.New(cfg.HTTPTimeout(), proxyMode, logs.Component("http"))
	c.api, c.apiErr = api.New(api.Config{
		BaseURL:    cfg.APIBaseURL,
		Version:    cfg.APIVersion,
		HTTPClient: httpClient,
		Logger:     logs.Component("api"),
		Observer:   observer,
		Tracer:     tracing.Tracer(),
	})
	if up, err := upload.New(upload.Config{
		URL:        cfg.UploadURL,
		APIKey:     cfg.UploadAPIKey,
		HTTPClient: httpClient,
		Logger:     logs.Component("upload"),
		Observer:   observer,
		Tracer:     tracing.Tracer(),
	}); err != nil {
		logger.Warn("photo uploads disabled: %v", err)
	} else {
		c.upload = up
	}

	logger.Info("started (config=%s, state=%s)", meta.ConfigPath(), stateDir)
	return c, nil
}

// Ready reports what keeps the interactive flows from starting: the errors
// config validate would print, or a backend client that could not be built.
// logout and config work without it.
func (c *Container) Ready() error {
	if c.Report.HasErrors() {
		messages := make([]string, 0, len(c.Report.Errors))
		for _, issue := range c.Report.Errors {
			msg := issue.Message
			if issue.Hint != "" {
				msg += " (" + issue.Hint + ")"
			}
			messages = append(messages, msg)
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
	}
	_, err := c.API()
	return err
}

// API returns the backend client, or why it could not be built.
func (c *Container) API() (*api.Client, error) {
	if c.apiErr != nil {
		return nil, fmt.Errorf("%w (set api_base_url in %s or KARMATCH_API_BASE_URL)", c.apiErr, c.Meta.ConfigPath())
	}
	return c.api, nil
}

// LoginFlow returns a fresh login state machine.
func (c *Container) LoginFlow() (*login.Flow, error) {
	client, err := c.API()
	if err != nil {
		return nil, err
	}
	return login.NewFlow(client, c.Session, c.Runtime.RedirectDelay(), c.Logs.Component("login")), nil
}

// Onboarding returns a new wizard and the finisher for its last step.
func (c *Container) Onboarding() (*onboarding.Wizard, *onboarding.Finisher, error) {
	client, err := c.API()
	if err != nil {
		return nil, nil, err
	}
	wizard := onboarding.NewWizard(c.Logs.Component("onboarding"))
	finisher := &onboarding.Finisher{
		Wizard:    wizard,
		Session:   c.Session,
		Registrar: client,
		Policy:    c.Runtime.RegistrationPolicy,
		Country:   c.Runtime.Country,
		Logger:    c.Logs.Component("onboarding"),
	}
	if c.upload != nil {
		finisher.Uploader = c.upload
	}
	return wizard, finisher, nil
}

// Chat returns a controller over the persisted transcript.
func (c *Container) Chat() (*chat.Controller, error) {
	client, err := c.API()
	if err != nil {
		return nil, err
	}
	return chat.NewController(c.History, client, c.Logs.Component("chat")), nil
}

// Cleanup stops the metrics listener, flushes spans and closes the log file.
func (c *Container) Cleanup() error {
	var errs []error
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if c.metrics != nil {
		errs = append(errs, c.metrics.Shutdown(ctx))
	}
	errs = append(errs, c.tracing.Shutdown(ctx))
	errs = append(errs, c.Logs.Close())
	return errors.Join(errs...)
}
