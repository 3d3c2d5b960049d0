package producer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashback/hashback/internal/domain"
)

func dumpConfig() DumpConfig {
	return DumpConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "backup",
		Password: "secret",
		Timeout:  time.Minute,
	}
}

func dbSpec(name, database string, schemaOnly ...string) domain.ArtifactSpec {
	return domain.ArtifactSpec{
		Name:             name,
		Kind:             domain.SourceDatabase,
		Database:         database,
		SchemaOnlyTables: schemaOnly,
	}
}

func TestDatabaseDumper_FullDumpArgs(t *testing.T) {
	d := NewDatabaseDumper(dumpConfig())

	args := d.fullDumpArgs(dbSpec("app", "appdb"))
	assert.Equal(t, []string{"--host=localhost", "--user=backup", "--port=3306", "appdb"}, args)
}

func TestDatabaseDumper_FullDumpArgs_SchemaOnlyExcluded(t *testing.T) {
	d := NewDatabaseDumper(dumpConfig())

	args := d.fullDumpArgs(dbSpec("app", "appdb", "sessions", "cache"))

	assert.Contains(t, args, "--ignore-table=appdb.sessions")
	assert.Contains(t, args, "--ignore-table=appdb.cache")
	assert.Equal(t, "appdb", args[len(args)-1])
	assert.NotContains(t, args, "--no-data")
}

func TestDatabaseDumper_SchemaOnlyArgs(t *testing.T) {
	d := NewDatabaseDumper(dumpConfig())

	args := d.schemaOnlyArgs(dbSpec("app", "appdb", "sessions", "cache"))

	assert.Contains(t, args, "--no-data")
	assert.Equal(t, []string{"sessions", "cache"}, args[len(args)-2:])
	assert.NotContains(t, args, "--ignore-table=appdb.sessions")
}

func TestDatabaseDumper_ConnArgs_NoPassword(t *testing.T) {
	// The password must never appear on the command line.
	d := NewDatabaseDumper(dumpConfig())

	for _, arg := range d.connArgs() {
		assert.NotContains(t, arg, "secret")
	}
}

func TestClassifyDumpError(t *testing.T) {
	exitErr := errors.New("exit status 2")

	t.Run("unknown database is source missing", func(t *testing.T) {
		err := classifyDumpError("mysqldump: Got error: 1049: Unknown database 'nope'", exitErr)
		assert.ErrorIs(t, err, domain.ErrSourceMissing)
	})

	t.Run("other stderr is a plain failure", func(t *testing.T) {
		err := classifyDumpError("mysqldump: Access denied for user 'backup'", exitErr)
		assert.NotErrorIs(t, err, domain.ErrSourceMissing)
		assert.ErrorContains(t, err, "Access denied")
	})

	t.Run("empty stderr keeps the exec error", func(t *testing.T) {
		err := classifyDumpError("", exitErr)
		assert.ErrorIs(t, err, exitErr)
	})
}

func TestDatabaseDumper_Produce_WithStub(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub script requires a POSIX shell")
	}

	stub := filepath.Join(t.TempDir(), "mysqldump")
	script := "#!/bin/sh\necho \"-- dump of $@\"\n"
	require.NoError(t, os.WriteFile(stub, []byte(script), 0o755))

	cfg := dumpConfig()
	cfg.BinaryPath = stub
	d := NewDatabaseDumper(cfg)

	art, err := d.Produce(context.Background(), dbSpec("app", "appdb", "sessions"), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "app.sql", filepath.Base(art.LocalPath))

	content, err := os.ReadFile(art.LocalPath)
	require.NoError(t, err)
	// Two passes: full data with the exclusion, then structure only.
	assert.Contains(t, string(content), "--ignore-table=appdb.sessions")
	assert.Contains(t, string(content), "--no-data")
}

func TestDatabaseDumper_Produce_StubFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub script requires a POSIX shell")
	}

	stub := filepath.Join(t.TempDir(), "mysqldump")
	script := "#!/bin/sh\necho \"mysqldump: Got error: 1049: Unknown database 'appdb'\" >&2\nexit 2\n"
	require.NoError(t, os.WriteFile(stub, []byte(script), 0o755))

	cfg := dumpConfig()
	cfg.BinaryPath = stub
	d := NewDatabaseDumper(cfg)

	dest := t.TempDir()
	_, err := d.Produce(context.Background(), dbSpec("app", "appdb"), dest)
	assert.ErrorIs(t, err, domain.ErrSourceMissing)

	// The partial dump file must not survive the failure.
	leftovers, readErr := os.ReadDir(dest)
	require.NoError(t, readErr)
	assert.Empty(t, leftovers)
}
