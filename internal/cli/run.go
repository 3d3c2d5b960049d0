package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hashback/hashback/internal/app"
	"github.com/hashback/hashback/internal/domain"
	"github.com/hashback/hashback/internal/http"
	"github.com/hashback/hashback/internal/ledger"
	"github.com/hashback/hashback/internal/metrics"
	"github.com/hashback/hashback/internal/notify"
	"github.com/hashback/hashback/internal/producer"
	"github.com/hashback/hashback/internal/sink"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backup cycle and exit",
		Long: `Run a single backup cycle and exit.

Each configured source is archived, fingerprinted, and uploaded only if
its content changed since the previous run. The exit code is non-zero
if any artifact failed or the fingerprint ledger was unreachable.`,
		RunE: runRun,
	}

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	ctx := cmd.Context()

	store, err := ledger.Open(ctx, ledger.Config{
		URL:             cfg.Ledger.URL,
		PingTimeout:     cfg.Ledger.PingTimeout,
		MaxOpenConns:    cfg.Ledger.MaxOpenConns,
		MaxIdleConns:    cfg.Ledger.MaxIdleConns,
		ConnMaxLifetime: cfg.Ledger.ConnMaxLifetime,
	}, ledger.WithStoreLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open fingerprint ledger: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}

	retryCfg := http.RetryConfig{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	}

	objectStore, err := sink.New(sink.Config{
		Endpoint:      cfg.Remote.Endpoint,
		AccessKey:     cfg.Remote.AccessKey,
		SecretKey:     cfg.Remote.SecretKey,
		Region:        cfg.Remote.Region,
		UseSSL:        cfg.Remote.UseSSL,
		Bucket:        cfg.Remote.Bucket,
		UploadTimeout: cfg.Remote.UploadTimeout,
	}, sink.WithRetryConfig(retryCfg), sink.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	orchOpts := []app.Option{
		app.WithLedger(store),
		app.WithSink(objectStore),
		app.WithLogger(logger),
		app.WithProducer(domain.SourceDirectory,
			producer.NewDirectoryArchiver(producer.WithDirectoryLogger(logger))),
	}

	if len(cfg.Databases) > 0 {
		dumper := producer.NewDatabaseDumper(producer.DumpConfig{
			Host:       cfg.MySQL.Host,
			Port:       cfg.MySQL.Port,
			User:       cfg.MySQL.User,
			Password:   cfg.MySQL.Password,
			BinaryPath: cfg.MySQL.MysqldumpPath,
			Timeout:    cfg.MySQL.DumpTimeout,
		}, producer.WithDumpLogger(logger))
		orchOpts = append(orchOpts, app.WithProducer(domain.SourceDatabase, dumper))
	}

	httpClient := http.NewClient(
		http.WithRetryConfig(retryCfg),
		http.WithLogger(logger),
	)

	if cfg.Metrics.Enabled {
		pusher := metrics.NewPushgatewayClient(
			cfg.Metrics.PushgatewayURL,
			metrics.WithHTTPClient(httpClient),
			metrics.WithLogger(logger),
		)
		orchOpts = append(orchOpts, app.WithMetricsPusher(pusher))
	}

	if cfg.Apprise.Enabled {
		notifier := notify.NewAppriseClient(
			cfg.Apprise.URL,
			cfg.Apprise.Key,
			notify.WithHTTPClient(httpClient),
			notify.WithLogger(logger),
		)
		orchOpts = append(orchOpts, app.WithNotifier(notifier))
	}

	orch := app.New(cfg, orchOpts...)

	report, runErr := orch.Run(ctx)
	printReport(cmd.OutOrStdout(), report)

	if runErr != nil {
		return fmt.Errorf("backup run aborted: %w", runErr)
	}
	if !report.Success() {
		_, _, failed := report.Counts()
		return fmt.Errorf("backup run completed with %d failed artifact(s)", failed)
	}

	return nil
}

// printReport writes one line per artifact plus a summary.
func printReport(w io.Writer, report *domain.RunReport) {
	for _, a := range report.Artifacts {
		switch a.Outcome {
		case domain.OutcomeUploaded:
			fmt.Fprintf(w, "  %s: uploaded (%d bytes, hash %s)\n", a.Name, a.SizeBytes, a.Hash)
		case domain.OutcomeSkipped:
			fmt.Fprintf(w, "  %s: skipped (%s)\n", a.Name, a.Reason)
		case domain.OutcomeFailed:
			fmt.Fprintf(w, "  %s: failed: %s\n", a.Name, a.Error)
		}
	}

	uploaded, skipped, failed := report.Counts()
	fmt.Fprintf(w, "%d uploaded, %d skipped, %d failed in %s\n",
		uploaded, skipped, failed, report.Duration.Round(time.Millisecond))
}
