package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashback/hashback/internal/domain"
)

func testMetrics() *domain.Metrics {
	report := domain.NewRunReport("run-1", false)
	report.Artifacts = []domain.ArtifactResult{
		{Name: "www", Outcome: domain.OutcomeUploaded, SizeBytes: 1024},
		{Name: "etc", Outcome: domain.OutcomeSkipped, Reason: domain.SkipUnchanged},
		{Name: "appdb", Outcome: domain.OutcomeFailed, Error: "dump failed"},
	}
	report.Complete()
	return domain.NewMetrics("testhost", report)
}

func TestPushgatewayClient_Push_Success(t *testing.T) {
	var receivedPath string
	var receivedBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		receivedBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPushgatewayClient(server.URL)
	err := client.Push(context.Background(), testMetrics())

	require.NoError(t, err)
	assert.Equal(t, "/metrics/job/hashback/instance/testhost", receivedPath)
	assert.Contains(t, receivedBody, "hashback_up 1")
	assert.Contains(t, receivedBody, "hashback_last_run_success 0")
	assert.Contains(t, receivedBody, "hashback_artifacts_total 3")
	assert.Contains(t, receivedBody, "hashback_artifacts_uploaded 1")
	assert.Contains(t, receivedBody, "hashback_artifacts_skipped 1")
	assert.Contains(t, receivedBody, "hashback_artifacts_failed 1")
	assert.Contains(t, receivedBody, "hashback_bytes_uploaded 1024")
}

func TestPushgatewayClient_Push_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad metrics"))
	}))
	defer server.Close()

	client := NewPushgatewayClient(server.URL)
	err := client.Push(context.Background(), testMetrics())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestPushgatewayClient_BuildMetrics_SuccessfulRun(t *testing.T) {
	report := domain.NewRunReport("run-2", false)
	report.Artifacts = []domain.ArtifactResult{
		{Name: "www", Outcome: domain.OutcomeUploaded, SizeBytes: 10},
	}
	report.FinishedAt = time.Unix(1700000000, 0)
	report.Duration = 1500 * time.Millisecond

	client := NewPushgatewayClient("http://localhost:9091")
	body := client.buildMetrics(domain.NewMetrics("host", report))

	assert.Contains(t, body, "hashback_last_run_success 1")
	assert.Contains(t, body, "hashback_last_run_timestamp_seconds 1700000000")
	assert.Contains(t, body, "hashback_last_run_duration_seconds 1.500")
}

func TestPushgatewayClient_BuildMetrics_NilReport(t *testing.T) {
	client := NewPushgatewayClient("http://localhost:9091")
	body := client.buildMetrics(&domain.Metrics{Hostname: "host"})

	assert.Contains(t, body, "hashback_up 1")
	assert.NotContains(t, body, "hashback_last_run_success")
}

func TestPushgatewayClient_Validate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPushgatewayClient(server.URL)
	assert.NoError(t, client.Validate(context.Background()))
}

func TestPushgatewayClient_Validate_Failure(t *testing.T) {
	client := NewPushgatewayClient("http://localhost:1")
	err := client.Validate(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}
