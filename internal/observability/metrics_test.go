package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserverRecordsRequests(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer, err := NewPrometheusObserver("test", registry)
	require.NoError(t, err)

	observer.RecordRequest("login", 20*time.Millisecond, OutcomeSuccess)
	observer.RecordRequest("login", 30*time.Millisecond, OutcomeLogical)
	observer.RecordRequest("conversation", time.Second, OutcomeTransport)

	assert.Equal(t, 1.0, testutil.ToFloat64(observer.requestOutcomes.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(observer.requestOutcomes.WithLabelValues("login", "logical_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(observer.requestOutcomes.WithLabelValues("conversation", "transport_failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(observer.requestDuration))
}

func TestPrometheusObserverRecordsUploads(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer, err := NewPrometheusObserver("", registry)
	require.NoError(t, err)

	observer.RecordUpload(time.Second, 2048, nil)
	observer.RecordUpload(time.Second, 4096, errors.New("boom"))

	assert.Equal(t, 2048.0, testutil.ToFloat64(observer.uploadBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(observer.uploadFailures))
}

func TestNilObserverIsSafe(t *testing.T) {
	var observer *PrometheusObserver
	observer.RecordRequest("login", time.Second, OutcomeSuccess)
	observer.RecordUpload(time.Second, 1, nil)

	assert.Equal(t, NopObserver(), OrNop(observer))
	assert.Equal(t, NopObserver(), OrNop(nil))
}

func TestMetricsServerServesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	observer, err := NewPrometheusObserver("karmatch", registry)
	require.NoError(t, err)
	observer.RecordRequest("register", time.Millisecond, OutcomeSuccess)

	server, err := StartMetricsServer("127.0.0.1:0", registry, nil)
	require.NoError(t, err)
	defer func() { _ = server.Shutdown(context.Background()) }()

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `karmatch_api_requests_total{endpoint="register",outcome="success"} 1`)
}
