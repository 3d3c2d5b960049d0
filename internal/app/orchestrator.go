// Package app provides the core application logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hashback/hashback/internal/config"
	"github.com/hashback/hashback/internal/domain"
	"github.com/hashback/hashback/internal/fingerprint"
)

// Orchestrator drives one backup run: it materializes artifacts,
// fingerprints them, compares against the ledger, and uploads only what
// changed. Artifact failures are isolated; only a ledger outage aborts
// the run.
type Orchestrator struct {
	producers     map[domain.SourceKind]domain.Producer
	ledger        domain.FingerprintStore
	sink          domain.RemoteSink
	notifier      domain.Notifier
	metricsPusher domain.MetricsPusher
	config        *config.Config
	logger        *slog.Logger
	hostname      string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProducer registers the producer for a source kind.
func WithProducer(kind domain.SourceKind, p domain.Producer) Option {
	return func(o *Orchestrator) {
		o.producers[kind] = p
	}
}

// WithLedger sets the fingerprint store.
func WithLedger(s domain.FingerprintStore) Option {
	return func(o *Orchestrator) {
		o.ledger = s
	}
}

// WithSink sets the remote sink.
func WithSink(s domain.RemoteSink) Option {
	return func(o *Orchestrator) {
		o.sink = s
	}
}

// WithNotifier sets the notifier.
func WithNotifier(n domain.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithMetricsPusher sets the metrics pusher.
func WithMetricsPusher(m domain.MetricsPusher) Option {
	return func(o *Orchestrator) {
		o.metricsPusher = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates a new Orchestrator.
func New(cfg *config.Config, opts ...Option) *Orchestrator {
	hostname, _ := os.Hostname()

	o := &Orchestrator{
		producers: make(map[domain.SourceKind]domain.Producer),
		config:    cfg,
		logger:    slog.Default(),
		hostname:  hostname,
		notifier:  &domain.NopNotifier{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// SpecsFromConfig flattens the configured directories and databases into
// the ordered spec list for one run. Config validation already guarantees
// unique names.
func SpecsFromConfig(cfg *config.Config) []domain.ArtifactSpec {
	specs := make([]domain.ArtifactSpec, 0, len(cfg.Directories)+len(cfg.Databases))
	for _, d := range cfg.Directories {
		specs = append(specs, domain.ArtifactSpec{
			Name: d.Name,
			Kind: domain.SourceDirectory,
			Path: d.Path,
		})
	}
	for _, d := range cfg.Databases {
		specs = append(specs, domain.ArtifactSpec{
			Name:             d.Name,
			Kind:             domain.SourceDatabase,
			Database:         d.Name,
			SchemaOnlyTables: d.SchemaOnlyTables,
		})
	}
	return specs
}

// Run executes a single backup run over all configured specs and returns
// the per-artifact report. A non-nil error means the run aborted (ledger
// unreachable); per-artifact failures are reported in the RunReport, not
// the error.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunReport, error) {
	runID := uuid.NewString()
	report := domain.NewRunReport(runID, o.config.DryRun)

	o.logger.Info("starting backup run",
		"run_id", runID,
		"dry_run", o.config.DryRun,
		"workers", o.config.Workers,
	)

	// Fail fast: without the ledger, change detection cannot be trusted
	// in either direction.
	pingCtx, cancel := context.WithTimeout(ctx, o.config.Ledger.PingTimeout)
	err := o.ledger.Ping(pingCtx)
	cancel()
	if err != nil {
		report.Complete()
		return report, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	workDir, err := o.makeWorkDir(runID)
	if err != nil {
		report.Complete()
		return report, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			o.logger.Warn("failed to remove work directory", "path", workDir, "error", rmErr)
		}
	}()

	// One dated container per run day. An ensure failure is not fatal:
	// unchanged artifacts can still be confirmed without it.
	containerName := time.Now().Format("2006-01-02")
	var containerID string
	var containerErr error
	if !o.config.DryRun {
		containerID, containerErr = o.sink.EnsureContainer(ctx, containerName, o.config.Remote.Prefix)
		if containerErr != nil {
			o.logger.Error("failed to ensure remote container",
				"container", containerName,
				"error", containerErr,
			)
		}
	}

	specs := SpecsFromConfig(o.config)
	results := make([]domain.ArtifactResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			res, fatal := o.processSpec(gctx, spec, workDir, containerID, containerErr)
			results[i] = res
			return fatal
		})
	}
	fatalErr := g.Wait()

	for _, res := range results {
		if res.Name == "" {
			// Never processed: a fatal error cancelled the run first.
			continue
		}
		report.Artifacts = append(report.Artifacts, res)
	}
	report.Complete()

	uploaded, skipped, failed := report.Counts()
	o.logger.Info("backup run completed",
		"run_id", runID,
		"uploaded", uploaded,
		"skipped", skipped,
		"failed", failed,
		"duration", report.Duration,
	)

	if err := o.pushMetrics(ctx, report); err != nil {
		o.logger.Error("failed to push metrics", "error", err)
	}
	if err := o.sendNotifications(ctx, report, fatalErr); err != nil {
		o.logger.Error("failed to send notification", "error", err)
	}

	return report, fatalErr
}

// makeWorkDir creates the per-run scratch directory all artifacts are
// materialized under. The run id in the path keeps concurrent runs from
// colliding.
func (o *Orchestrator) makeWorkDir(runID string) (string, error) {
	base := o.config.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "hashback-"+runID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// processSpec runs the full protocol for one spec: produce, fingerprint,
// compare, upload if changed, record. The local artifact is removed on
// every exit path. A non-nil second return aborts the whole run.
func (o *Orchestrator) processSpec(ctx context.Context, spec domain.ArtifactSpec, workDir, containerID string, containerErr error) (domain.ArtifactResult, error) {
	start := time.Now()
	result := domain.ArtifactResult{Name: spec.Name}
	defer func() {
		result.Duration = time.Since(start)
	}()

	log := o.logger.With("artifact", spec.Name, "kind", spec.Kind.String())

	producer, ok := o.producers[spec.Kind]
	if !ok {
		result.Outcome = domain.OutcomeFailed
		result.Error = fmt.Sprintf("no producer registered for kind %q", spec.Kind)
		return result, nil
	}

	artifact, err := producer.Produce(ctx, spec, workDir)
	if err != nil {
		if errors.Is(err, domain.ErrSourceMissing) {
			log.Warn("source missing, skipping", "error", err)
			result.Outcome = domain.OutcomeSkipped
			result.Reason = domain.SkipSourceMissing
			return result, nil
		}
		log.Error("failed to produce artifact", "error", err)
		result.Outcome = domain.OutcomeFailed
		result.Error = err.Error()
		return result, nil
	}
	defer func() {
		if rmErr := os.Remove(artifact.LocalPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("failed to remove local artifact", "path", artifact.LocalPath, "error", rmErr)
		}
	}()

	hash, err := fingerprint.File(artifact.LocalPath)
	if err != nil {
		log.Error("failed to fingerprint artifact", "error", err)
		result.Outcome = domain.OutcomeFailed
		result.Error = err.Error()
		return result, nil
	}
	result.Hash = hash
	result.SizeBytes = artifact.SizeBytes

	stored, found, err := o.ledger.Get(ctx, spec.Name)
	if err != nil {
		// Ledger outage mid-run: abort everything rather than guess.
		result.Outcome = domain.OutcomeFailed
		result.Error = err.Error()
		return result, err
	}

	if found && stored == hash {
		log.Info("artifact unchanged", "hash", hash)
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.SkipUnchanged
		return result, nil
	}

	log.Info("artifact changed",
		"hash", hash,
		"previous_known", found,
		"size_bytes", artifact.SizeBytes,
	)

	if o.config.DryRun {
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.SkipDryRun
		return result, nil
	}

	if containerErr != nil {
		result.Outcome = domain.OutcomeFailed
		result.Error = fmt.Sprintf("remote container unavailable: %v", containerErr)
		return result, nil
	}

	ref, err := o.sink.Upload(ctx, artifact, containerID)
	if err != nil {
		// The ledger keeps the old hash, so the next run retries the
		// upload.
		log.Error("failed to upload artifact", "error", err)
		result.Outcome = domain.OutcomeFailed
		result.Error = err.Error()
		return result, nil
	}
	log.Info("artifact uploaded", "remote_id", ref.RemoteID, "container", ref.ContainerID)

	// Record the hash only after the upload is confirmed. If this fails
	// the upload stands, the ledger lags, and the next run re-uploads;
	// upload is an upsert so that is safe.
	if err := o.ledger.Put(ctx, spec.Name, hash); err != nil {
		log.Error("failed to record fingerprint", "error", err)
		result.Outcome = domain.OutcomeUploaded
		result.Error = err.Error()
		return result, err
	}

	result.Outcome = domain.OutcomeUploaded
	return result, nil
}

// pushMetrics pushes run metrics if a pusher is configured.
func (o *Orchestrator) pushMetrics(ctx context.Context, report *domain.RunReport) error {
	if o.metricsPusher == nil {
		return nil
	}
	return o.metricsPusher.Push(ctx, domain.NewMetrics(o.hostname, report))
}

// sendNotifications sends a run summary according to the configured
// notification level.
func (o *Orchestrator) sendNotifications(ctx context.Context, report *domain.RunReport, fatalErr error) error {
	failed := fatalErr != nil || !report.Success()

	switch o.config.Apprise.Notify {
	case config.NotifyAlways:
		// Send on every run.
	case config.NotifyError:
		if !failed {
			return nil
		}
	default:
		if !failed {
			return nil
		}
	}

	var n *domain.Notification
	if failed {
		n = domain.ErrorNotification("Backup failed on "+o.hostname, buildErrorMessage(report, fatalErr))
	} else {
		n = domain.InfoNotification("Backup completed on "+o.hostname, buildSuccessMessage(report))
	}
	return o.notifier.Notify(ctx, n)
}

func buildSuccessMessage(report *domain.RunReport) string {
	uploaded, skipped, _ := report.Counts()
	return fmt.Sprintf("Run %s finished in %s: %d uploaded (%d bytes), %d skipped.",
		report.RunID,
		report.Duration.Round(time.Millisecond),
		uploaded,
		report.BytesUploaded(),
		skipped,
	)
}

func buildErrorMessage(report *domain.RunReport, fatalErr error) string {
	if fatalErr != nil {
		return fmt.Sprintf("Run %s aborted: %v", report.RunID, fatalErr)
	}
	uploaded, skipped, failed := report.Counts()
	msg := fmt.Sprintf("Run %s finished with failures: %d uploaded, %d skipped, %d failed.",
		report.RunID, uploaded, skipped, failed)
	for _, a := range report.Artifacts {
		if a.Outcome == domain.OutcomeFailed {
			msg += fmt.Sprintf("\n- %s: %s", a.Name, a.Error)
		}
	}
	return msg
}
