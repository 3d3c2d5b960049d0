// Package metrics provides implementations for pushing metrics to remote endpoints.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashback/hashback/internal/domain"
	"github.com/hashback/hashback/internal/http"
	"github.com/hashback/hashback/pkg/version"
)

const (
	metricsJobName = "hashback"
	contentType    = "text/plain; charset=utf-8"
)

// PushgatewayClient pushes metrics to a Prometheus Pushgateway.
type PushgatewayClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// PushgatewayOption configures a PushgatewayClient.
type PushgatewayOption func(*PushgatewayClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) PushgatewayOption {
	return func(p *PushgatewayClient) {
		p.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PushgatewayOption {
	return func(p *PushgatewayClient) {
		p.logger = logger
	}
}

// NewPushgatewayClient creates a new PushgatewayClient.
func NewPushgatewayClient(url string, opts ...PushgatewayOption) *PushgatewayClient {
	p := &PushgatewayClient{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: http.NewClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Push sends metrics to the Pushgateway.
func (p *PushgatewayClient) Push(ctx context.Context, metrics *domain.Metrics) error {
	body := p.buildMetrics(metrics)

	pushURL := fmt.Sprintf("%s/metrics/job/%s/instance/%s", p.url, metricsJobName, metrics.Hostname)

	p.logger.Debug("pushing metrics to pushgateway", "url", pushURL)

	resp, err := p.httpClient.Post(ctx, pushURL, contentType, []byte(body))
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushgateway returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	p.logger.Debug("metrics pushed successfully")
	return nil
}

// Validate checks if the Pushgateway is reachable.
func (p *PushgatewayClient) Validate(ctx context.Context) error {
	// Pushgateway typically has a /-/ready endpoint
	readyURL := fmt.Sprintf("%s/-/ready", p.url)

	if err := p.httpClient.CheckConnectivity(ctx, readyURL); err != nil {
		// Try the root URL as fallback
		if err2 := p.httpClient.CheckConnectivity(ctx, p.url); err2 != nil {
			return fmt.Errorf("pushgateway not reachable at %s: %w", p.url, err)
		}
	}

	return nil
}

// buildMetrics constructs the Prometheus text format metrics.
func (p *PushgatewayClient) buildMetrics(m *domain.Metrics) string {
	var b strings.Builder

	b.WriteString("# HELP hashback_up Service is running\n")
	b.WriteString("# TYPE hashback_up gauge\n")
	b.WriteString("hashback_up 1\n")

	b.WriteString("# HELP hashback_info Build information\n")
	b.WriteString("# TYPE hashback_info gauge\n")
	b.WriteString(fmt.Sprintf("hashback_info{version=%q} 1\n", version.Get().Version))

	r := m.Report
	if r == nil {
		return b.String()
	}

	success := 0
	if r.Success() {
		success = 1
	}
	uploaded, skipped, failed := r.Counts()

	b.WriteString("# HELP hashback_last_run_timestamp_seconds Unix timestamp of last run\n")
	b.WriteString("# TYPE hashback_last_run_timestamp_seconds gauge\n")
	b.WriteString(fmt.Sprintf("hashback_last_run_timestamp_seconds %d\n", r.FinishedAt.Unix()))

	b.WriteString("# HELP hashback_last_run_success Whether the last run succeeded\n")
	b.WriteString("# TYPE hashback_last_run_success gauge\n")
	b.WriteString(fmt.Sprintf("hashback_last_run_success %d\n", success))

	b.WriteString("# HELP hashback_last_run_duration_seconds Duration of last run\n")
	b.WriteString("# TYPE hashback_last_run_duration_seconds gauge\n")
	b.WriteString(fmt.Sprintf("hashback_last_run_duration_seconds %.3f\n", r.Duration.Seconds()))

	b.WriteString("# HELP hashback_artifacts_total Artifacts processed in last run\n")
	b.WriteString("# TYPE hashback_artifacts_total gauge\n")
	b.WriteString(fmt.Sprintf("hashback_artifacts_total %d\n", len(r.Artifacts)))

	b.WriteString("# HELP hashback_artifacts_uploaded Artifacts uploaded in last run\n")
	b.WriteString("# TYPE hashback_artifacts_uploaded gauge\n")
	b.WriteString(fmt.Sprintf("hashback_artifacts_uploaded %d\n", uploaded))

	b.WriteString("# HELP hashback_artifacts_skipped Artifacts skipped in last run\n")
	b.WriteString("# TYPE hashback_artifacts_skipped gauge\n")
	b.WriteString(fmt.Sprintf("hashback_artifacts_skipped %d\n", skipped))

	b.WriteString("# HELP hashback_artifacts_failed Artifacts failed in last run\n")
	b.WriteString("# TYPE hashback_artifacts_failed gauge\n")
	b.WriteString(fmt.Sprintf("hashback_artifacts_failed %d\n", failed))

	b.WriteString("# HELP hashback_bytes_uploaded Bytes uploaded in last run\n")
	b.WriteString("# TYPE hashback_bytes_uploaded gauge\n")
	b.WriteString(fmt.Sprintf("hashback_bytes_uploaded %d\n", r.BytesUploaded()))

	return b.String()
}

// Ensure PushgatewayClient implements domain.MetricsPusher.
var _ domain.MetricsPusher = (*PushgatewayClient)(nil)
