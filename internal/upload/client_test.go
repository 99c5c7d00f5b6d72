package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"karmatch/internal/observability"
	kerrors "karmatch/internal/shared/errors"
)

// Smallest valid PNG header is enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadSendsMultipartForm(t *testing.T) {
	var (
		gotKey, gotName, gotType string
		gotData                  []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotKey = r.FormValue("apiKey")
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(file)
		_, _ = io.WriteString(w, `{"url":"https://cdn.example.com/a.png"}`)
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "pk", HTTPClient: server.Client()})
	require.NoError(t, err)

	url, err := client.Upload(context.Background(), "me.png", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)
	assert.Equal(t, "pk", gotKey)
	assert.Equal(t, "me.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, pngBytes, gotData)
}

func TestUploadFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   kerrors.Kind
	}{
		{name: "http error", status: http.StatusUnauthorized, body: `{"message":"bad key"}`, kind: kerrors.KindTransport},
		{name: "missing url", status: http.StatusOK, body: `{"message":"rejected"}`, kind: kerrors.KindLogical},
		{name: "garbage", status: http.StatusOK, body: `oops`, kind: kerrors.KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client, err := New(Config{URL: server.URL, HTTPClient: server.Client()})
			require.NoError(t, err)
			_, err = client.Upload(context.Background(), "me.png", pngBytes)
			require.Error(t, err)
			assert.Equal(t, tt.kind, kerrors.KindOf(err))
		})
	}
}

func TestUploadEmpty(t *testing.T) {
	client, err := New(Config{URL: "https://files.example.com/upload"})
	require.NoError(t, err)
	_, err = client.Upload(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestUploadFileValidation(t *testing.T) {
	client, err := New(Config{URL: "https://files.example.com/upload"})
	require.NoError(t, err)

	_, err = client.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, kerrors.KindValidation, kerrors.KindOf(err))

	_, err = client.UploadFile(context.Background(), t.TempDir())
	assert.Equal(t, kerrors.KindValidation, kerrors.KindOf(err))
}

func TestUploadFileReadsFromDisk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"url":"https://cdn.example.com/b.png"}`)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "b.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	client, err := New(Config{URL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)
	url, err := client.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/b.png", url)
}

func TestUploadIsTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"message":"quota"}`)
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, HTTPClient: server.Client(), Tracer: provider.Tracer("test")})
	require.NoError(t, err)
	_, err = client.Upload(context.Background(), "me.png", pngBytes)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, observability.SpanUpload, spans[0].Name())
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, attrs[observability.AttrRequestID])
	assert.Equal(t, "upload", attrs[observability.AttrEndpoint])
	assert.Equal(t, string(observability.OutcomeLogical), attrs[observability.AttrOutcome])
	assert.Equal(t, "200", attrs[observability.AttrStatusCode])
}
