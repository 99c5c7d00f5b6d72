// Package api talks to the Karmatch backend.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"karmatch/internal/infra/httpclient"
	"karmatch/internal/observability"
	"karmatch/internal/session"
	kerrors "karmatch/internal/shared/errors"
	jsonx "karmatch/internal/shared/json"
	"karmatch/internal/shared/logging"
)

const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	BaseURL    string
	Version    string
	HTTPClient *http.Client
	Logger     logging.Logger
	Observer   observability.Observer
	Tracer     trace.Tracer
	// AllowInsecureHTTP permits plain http for non-loopback hosts.
	AllowInsecureHTTP bool
}

// Client issues backend calls. Each method returns the decoded reply and a
// *errors.TransportError for network failures, non-2xx statuses and
// undecodable bodies. A success=false reply is not an error at this layer.
type Client struct {
	base       string
	httpClient *http.Client
	logger     logging.Logger
	observer   observability.Observer
	tracer     trace.Tracer
	newID      func() string
}

// New validates the base URL and builds a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("api base URL is not configured")
	}
	u, err := httpclient.ValidateEndpoint(cfg.BaseURL, httpclient.EndpointOptions{AllowInsecureHTTP: cfg.AllowInsecureHTTP})
	if err != nil {
		return nil, fmt.Errorf("api base URL: %w", err)
	}
	version := strings.Trim(strings.TrimSpace(cfg.Version), "/")
	if version == "" {
		version = "v1"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(30*time.Second, httpclient.ProxyEnvironment, cfg.Logger)
	}
	return &Client{
		base:       strings.TrimRight(u.String(), "/") + "/" + version,
		httpClient: client,
		logger:     logging.OrNop(cfg.Logger),
		observer:   observability.OrNop(cfg.Observer),
		tracer:     observability.TracerOrNop(cfg.Tracer),
		newID:      func() string { return uuid.NewString() },
	}, nil
}

// Login asks the backend to email a one-time password.
func (c *Client) Login(ctx context.Context, email string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.post(ctx, EndpointLogin, "/auth/login", "", loginRequest{Email: email}, &resp,
		func() bool { return resp.Success })
	return resp, err
}

// VerifyOTP exchanges the email and OTP for a session token.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (VerifyResponse, error) {
	var resp VerifyResponse
	err := c.post(ctx, EndpointVerifyOTP, "/auth/verify_otp", "", verifyRequest{Email: email, OTP: otp}, &resp,
		func() bool { return resp.Success })
	return resp, err
}

// Register submits the onboarding record.
func (c *Client) Register(ctx context.Context, token session.Token, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.post(ctx, EndpointRegister, "/auth/register", token, req, &resp,
		func() bool { return resp.Succeeded() })
	return resp, err
}

// Converse sends one chat message and returns the AI reply.
func (c *Client) Converse(ctx context.Context, token session.Token, message string) (ConversationResponse, error) {
	var resp ConversationResponse
	err := c.post(ctx, EndpointConversation, "/ai/conversation", token, conversationRequest{Message: message}, &resp,
		func() bool { return resp.Success })
	return resp, err
}

func (c *Client) post(ctx context.Context, op, path string, token session.Token, body, out any, succeeded func() bool) error {
	ctx, span := c.tracer.Start(ctx, observability.SpanAPIRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(observability.AttrEndpoint, op)))

	start := time.Now()
	err := c.do(ctx, op, path, token, body, out)
	outcome := observability.OutcomeSuccess
	switch {
	case err != nil:
		outcome = observability.OutcomeTransport
	case !succeeded():
		outcome = observability.OutcomeLogical
	}
	c.observer.RecordRequest(op, time.Since(start), outcome)
	observability.EndSpan(span, outcome, err)
	return err
}

func (c *Client) do(ctx context.Context, op, path string, token session.Token, body, out any) error {
	payload, err := jsonx.Marshal(body)
	if err != nil {
		return &kerrors.TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return &kerrors.TransportError{Op: op, Err: err}
	}
	requestID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", token.Bearer())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String(observability.AttrRequestID, requestID))

	logger := logging.WithRequestID(c.logger, requestID)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("%s failed after %s: %v", op, time.Since(start), err)
		return &kerrors.TransportError{Op: op, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("close %s body: %v", op, cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody*16))
	if err != nil {
		return &kerrors.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	logger.Debug("%s -> HTTP %d in %s", op, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := decodeErrorMessage(data)
		logger.Warn("%s rejected: HTTP %d %s", op, resp.StatusCode, message)
		return &kerrors.TransportError{Op: op, StatusCode: resp.StatusCode, Message: message}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := jsonx.Unmarshal(data, out); err != nil {
		return &kerrors.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeErrorMessage(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	var body errorBody
	if err := jsonx.Unmarshal(data, &body); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(body.Error)
}
