package domain

import (
	"context"
	"time"
)

// Metrics contains all metrics to be pushed after a run.
type Metrics struct {
	// Timestamp when metrics were collected.
	Timestamp time.Time

	// Hostname of the machine.
	Hostname string

	// Report is the run the metrics describe.
	Report *RunReport
}

// NewMetrics creates a new Metrics instance for the given run.
func NewMetrics(hostname string, report *RunReport) *Metrics {
	return &Metrics{
		Timestamp: time.Now(),
		Hostname:  hostname,
		Report:    report,
	}
}

// MetricsPusher defines the interface for pushing metrics to a remote endpoint.
type MetricsPusher interface {
	// Push sends metrics to the remote endpoint.
	Push(ctx context.Context, metrics *Metrics) error

	// Validate checks if the pusher is properly configured.
	Validate(ctx context.Context) error
}
