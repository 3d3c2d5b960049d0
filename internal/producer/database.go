package producer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashback/hashback/internal/domain"
)

// DumpConfig holds connection settings for the external dump tool.
type DumpConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	BinaryPath string
	Timeout    time.Duration
}

// DatabaseDumper produces SQL dump artifacts by invoking mysqldump.
type DatabaseDumper struct {
	cfg    DumpConfig
	logger *slog.Logger
}

// DumpOption configures a DatabaseDumper.
type DumpOption func(*DatabaseDumper)

// WithDumpLogger sets the logger.
func WithDumpLogger(logger *slog.Logger) DumpOption {
	return func(d *DatabaseDumper) {
		d.logger = logger
	}
}

// NewDatabaseDumper creates a new DatabaseDumper.
func NewDatabaseDumper(cfg DumpConfig, opts ...DumpOption) *DatabaseDumper {
	d := &DatabaseDumper{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Produce dumps spec.Database into <destDir>/<name>.sql. Tables listed in
// spec.SchemaOnlyTables are written with structure only; all other tables
// carry full data. A database unknown to the server wraps
// domain.ErrSourceMissing.
func (d *DatabaseDumper) Produce(ctx context.Context, spec domain.ArtifactSpec, destDir string) (domain.Artifact, error) {
	outPath := filepath.Join(destDir, spec.Name+".sql")

	out, err := os.Create(outPath)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("create dump file: %w", err)
	}

	d.logger.Debug("dumping database",
		"name", spec.Name,
		"database", spec.Database,
		"schema_only_tables", len(spec.SchemaOnlyTables),
	)

	dumpErr := d.dump(ctx, out, spec)
	closeErr := out.Close()
	if dumpErr == nil {
		dumpErr = closeErr
	}
	if dumpErr != nil {
		_ = os.Remove(outPath)
		return domain.Artifact{}, dumpErr
	}

	st, err := os.Stat(outPath)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("stat dump: %w", err)
	}

	return domain.Artifact{
		Name:      spec.Name,
		LocalPath: outPath,
		SizeBytes: st.Size(),
	}, nil
}

// dump runs the full-data pass and, when schema-only tables are listed,
// a second structure-only pass appended to the same stream.
func (d *DatabaseDumper) dump(ctx context.Context, out *os.File, spec domain.ArtifactSpec) error {
	if err := d.run(ctx, out, d.fullDumpArgs(spec)...); err != nil {
		return err
	}
	if len(spec.SchemaOnlyTables) > 0 {
		if err := d.run(ctx, out, d.schemaOnlyArgs(spec)...); err != nil {
			return err
		}
	}
	return nil
}

// fullDumpArgs builds the argument list for the full-data pass, excluding
// any schema-only tables from it.
func (d *DatabaseDumper) fullDumpArgs(spec domain.ArtifactSpec) []string {
	args := d.connArgs()
	for _, table := range spec.SchemaOnlyTables {
		args = append(args, "--ignore-table="+spec.Database+"."+table)
	}
	return append(args, spec.Database)
}

// schemaOnlyArgs builds the argument list for the structure-only pass over
// the listed tables.
func (d *DatabaseDumper) schemaOnlyArgs(spec domain.ArtifactSpec) []string {
	args := append(d.connArgs(), "--no-data", spec.Database)
	return append(args, spec.SchemaOnlyTables...)
}

// connArgs returns the connection arguments shared by every invocation.
// The password travels via MYSQL_PWD, never on the command line.
func (d *DatabaseDumper) connArgs() []string {
	args := []string{"--host=" + d.cfg.Host, "--user=" + d.cfg.User}
	if d.cfg.Port > 0 {
		args = append(args, fmt.Sprintf("--port=%d", d.cfg.Port))
	}
	return args
}

// run executes mysqldump with the given arguments, streaming stdout into out.
func (d *DatabaseDumper) run(ctx context.Context, out *os.File, args ...string) error {
	path, err := d.binaryPath()
	if err != nil {
		return err
	}

	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	d.logger.Debug("executing mysqldump", "path", path, "args", args)

	// #nosec G204 -- path and args come from config, not user input
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+d.cfg.Password)

	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("mysqldump: %w", ctx.Err())
		}
		return classifyDumpError(stderr.String(), err)
	}

	return nil
}

// classifyDumpError distinguishes a missing database from a real dump
// failure based on the tool's stderr.
func classifyDumpError(stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if strings.Contains(msg, "Unknown database") {
		return fmt.Errorf("%w: %s", domain.ErrSourceMissing, msg)
	}
	if msg != "" {
		return fmt.Errorf("mysqldump failed: %s: %w", msg, err)
	}
	return fmt.Errorf("mysqldump failed: %w", err)
}

// Validate checks that the dump binary exists and executes.
func (d *DatabaseDumper) Validate(ctx context.Context) error {
	path, err := d.binaryPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("mysqldump not found at %s: %w", path, err)
	}

	// #nosec G204 -- path is from config or auto-detected, not user input
	if out, err := exec.CommandContext(ctx, path, "--version").Output(); err != nil {
		return fmt.Errorf("mysqldump failed to execute: %w", err)
	} else {
		d.logger.Debug("mysqldump available", "version", strings.TrimSpace(string(out)))
	}

	return nil
}

// binaryPath returns the path to the mysqldump binary.
func (d *DatabaseDumper) binaryPath() (string, error) {
	if d.cfg.BinaryPath != "" {
		return d.cfg.BinaryPath, nil
	}

	path, err := exec.LookPath("mysqldump")
	if err != nil {
		return "", fmt.Errorf("mysqldump not found in PATH")
	}
	return path, nil
}

// Ensure DatabaseDumper implements domain.Producer.
var _ domain.Producer = (*DatabaseDumper)(nil)
