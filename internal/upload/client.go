// Package upload sends profile photos to the public file host.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"karmatch/internal/infra/httpclient"
	"karmatch/internal/observability"
	kerrors "karmatch/internal/shared/errors"
	jsonx "karmatch/internal/shared/json"
	"karmatch/internal/shared/logging"
)

const (
	op = "upload"

	// MaxFileSize bounds what is read into memory for a single upload.
	MaxFileSize = 20 << 20
)

// ErrEmptyFile is returned when there is nothing to upload.
var ErrEmptyFile = errors.New("upload: empty file")

// Config configures a Client.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Logger     logging.Logger
	Observer   observability.Observer
	Tracer     trace.Tracer
}

// Client posts multipart {file, apiKey} forms and reads back {url}.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
	observer   observability.Observer
	tracer     trace.Tracer
}

// New builds a Client. The upload URL must be absolute.
func New(cfg Config) (*Client, error) {
	u, err := httpclient.ValidateEndpoint(cfg.URL, httpclient.EndpointOptions{})
	if err != nil {
		return nil, fmt.Errorf("upload URL: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(0, httpclient.ProxyEnvironment, cfg.Logger)
	}
	return &Client{
		url:        u.String(),
		apiKey:     cfg.APIKey,
		httpClient: client,
		logger:     logging.OrNop(cfg.Logger),
		observer:   observability.OrNop(cfg.Observer),
		tracer:     observability.TracerOrNop(cfg.Tracer),
	}, nil
}

// UploadFile reads path and uploads it.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", kerrors.NewValidationError("photo", fmt.Sprintf("cannot read %s", path))
	}
	if info.IsDir() {
		return "", kerrors.NewValidationError("photo", fmt.Sprintf("%s is a directory", path))
	}
	if info.Size() > MaxFileSize {
		return "", kerrors.NewValidationError("photo", fmt.Sprintf("%s is larger than %d MB", filepath.Base(path), MaxFileSize>>20))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", kerrors.NewValidationError("photo", fmt.Sprintf("cannot read %s", path))
	}
	return c.Upload(ctx, filepath.Base(path), data)
}

// Upload sends data under name and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, observability.SpanUpload,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrEndpoint, op),
			attribute.String(observability.AttrRequestID, requestID),
			attribute.Int(observability.AttrSizeBytes, len(data)),
		))

	start := time.Now()
	url, err := c.upload(ctx, requestID, name, data)
	c.observer.RecordUpload(time.Since(start), int64(len(data)), err)
	observability.EndSpan(span, uploadOutcome(err), err)
	if err != nil {
		c.logger.Warn("upload %s failed: %v", name, err)
		return "", err
	}
	c.logger.Info("uploaded %s (%d bytes)", name, len(data))
	return url, nil
}

func uploadOutcome(err error) observability.Outcome {
	var logical *kerrors.LogicalError
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.As(err, &logical), errors.Is(err, ErrEmptyFile):
		return observability.OutcomeLogical
	default:
		return observability.OutcomeTransport
	}
}

func (c *Client) upload(ctx context.Context, requestID, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	mtype := mimetype.Detect(data)
	if strings.TrimSpace(name) == "" {
		name = "upload" + mtype.Extension()
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", mtype.String())
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", &kerrors.TransportError{Op: op, Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &kerrors.TransportError{Op: op, Err: err}
	}
	if err := writer.WriteField("apiKey", c.apiKey); err != nil {
		return "", &kerrors.TransportError{Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &kerrors.TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", &kerrors.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &kerrors.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(observability.AttrStatusCode, resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &kerrors.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	var reply struct {
		URL     string `json:"url"`
		Message string `json:"message"`
	}
	decodeErr := jsonx.Unmarshal(raw, &reply)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &kerrors.TransportError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(reply.Message)}
	}
	if decodeErr != nil {
		return "", &kerrors.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if strings.TrimSpace(reply.URL) == "" {
		return "", &kerrors.LogicalError{Op: op, Message: strings.TrimSpace(reply.Message)}
	}
	return strings.TrimSpace(reply.URL), nil
}
