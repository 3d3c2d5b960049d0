package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hashback/hashback/internal/config"
	"github.com/hashback/hashback/internal/http"
	"github.com/hashback/hashback/internal/ledger"
	"github.com/hashback/hashback/internal/metrics"
	"github.com/hashback/hashback/internal/notify"
	"github.com/hashback/hashback/internal/producer"
	"github.com/hashback/hashback/internal/sink"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and test connectivity",
		Long: `Validate the configuration file and test connectivity to external services.

This checks:
- Config file syntax
- mysqldump availability (if database specs are configured)
- Fingerprint ledger connectivity
- Object store connectivity
- Pushgateway connectivity (if enabled)
- Apprise server connectivity (if enabled)`,
		RunE: runValidate,
	}

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	// Load config
	fmt.Println("Configuration:")
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  ✗ Config file: %v\n", err)
		return err
	}
	fmt.Printf("  ✓ Config file syntax valid\n")

	configPath, _ := config.DefaultConfigPath()
	if cfgFile != "" {
		configPath = cfgFile
	}
	fmt.Printf("  Config file: %s\n", configPath)
	fmt.Printf("  Directories: %d\n", len(cfg.Directories))
	fmt.Printf("  Databases: %d\n", len(cfg.Databases))
	fmt.Printf("  Workers: %d\n", cfg.Workers)
	fmt.Printf("  Remote bucket: %s\n", cfg.Remote.Bucket)
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics: enabled\n")
		fmt.Printf("  Pushgateway URL: %s\n", cfg.Metrics.PushgatewayURL)
	} else {
		fmt.Printf("  Metrics: disabled\n")
	}
	if cfg.Apprise.Enabled {
		fmt.Printf("  Notifications: enabled\n")
		fmt.Printf("  Apprise URL: %s\n", cfg.Apprise.URL)
		fmt.Printf("  Notification level: %s\n", cfg.Apprise.Notify)
	} else {
		fmt.Printf("  Notifications: disabled\n")
	}
	fmt.Println()

	fmt.Println("Checks:")
	logger, _ := setupLogging(cfg)

	// Check mysqldump when database specs exist
	if len(cfg.Databases) > 0 {
		dumper := producer.NewDatabaseDumper(producer.DumpConfig{
			Host:       cfg.MySQL.Host,
			Port:       cfg.MySQL.Port,
			User:       cfg.MySQL.User,
			Password:   cfg.MySQL.Password,
			BinaryPath: cfg.MySQL.MysqldumpPath,
			Timeout:    cfg.MySQL.DumpTimeout,
		}, producer.WithDumpLogger(logger))

		if err := dumper.Validate(ctx); err != nil {
			fmt.Printf("  ✗ mysqldump binary: %v\n", err)
		} else {
			fmt.Printf("  ✓ mysqldump binary found\n")
		}
	}

	// Check the fingerprint ledger
	store, err := ledger.Open(ctx, ledger.Config{
		URL:             cfg.Ledger.URL,
		PingTimeout:     cfg.Ledger.PingTimeout,
		MaxOpenConns:    cfg.Ledger.MaxOpenConns,
		MaxIdleConns:    cfg.Ledger.MaxIdleConns,
		ConnMaxLifetime: cfg.Ledger.ConnMaxLifetime,
	}, ledger.WithStoreLogger(logger))
	if err != nil {
		fmt.Printf("  ✗ Fingerprint ledger: %v\n", err)
	} else {
		fmt.Printf("  ✓ Fingerprint ledger reachable\n")
		_ = store.Close()
	}

	// Check the object store
	objectStore, err := sink.New(sink.Config{
		Endpoint:      cfg.Remote.Endpoint,
		AccessKey:     cfg.Remote.AccessKey,
		SecretKey:     cfg.Remote.SecretKey,
		Region:        cfg.Remote.Region,
		UseSSL:        cfg.Remote.UseSSL,
		Bucket:        cfg.Remote.Bucket,
		UploadTimeout: cfg.Remote.UploadTimeout,
	}, sink.WithLogger(logger))
	if err != nil {
		fmt.Printf("  ✗ Object store client: %v\n", err)
	} else if err := objectStore.Validate(ctx); err != nil {
		fmt.Printf("  ✗ Object store: %v\n", err)
	} else {
		fmt.Printf("  ✓ Object store bucket reachable\n")
	}

	// HTTP client without retries for validation
	httpClient := http.NewClient(
		http.WithRetryConfig(http.RetryConfig{
			MaxAttempts:  1,
			InitialDelay: time.Second,
			MaxDelay:     time.Second,
		}),
		http.WithLogger(logger),
	)

	// Check pushgateway if enabled
	if cfg.Metrics.Enabled {
		pushgatewayClient := metrics.NewPushgatewayClient(
			cfg.Metrics.PushgatewayURL,
			metrics.WithHTTPClient(httpClient),
			metrics.WithLogger(logger),
		)

		if err := pushgatewayClient.Validate(ctx); err != nil {
			fmt.Printf("  ✗ Pushgateway: %v\n", err)
		} else {
			fmt.Printf("  ✓ Pushgateway reachable\n")
		}
	}

	// Check apprise if enabled
	if cfg.Apprise.Enabled {
		appriseClient := notify.NewAppriseClient(
			cfg.Apprise.URL,
			cfg.Apprise.Key,
			notify.WithHTTPClient(httpClient),
			notify.WithLogger(logger),
		)

		if err := appriseClient.Validate(ctx); err != nil {
			fmt.Printf("  ✗ Apprise server: %v\n", err)
		} else {
			fmt.Printf("  ✓ Apprise server reachable\n")
		}
	}

	fmt.Println()
	fmt.Println("Validation complete.")
	return nil
}
