// Package domain defines core business types and interfaces.
package domain

// SourceKind identifies the kind of backup source.
type SourceKind string

const (
	// SourceDirectory is a filesystem directory tree.
	SourceDirectory SourceKind = "directory"
	// SourceDatabase is a named database dumped via an external tool.
	SourceDatabase SourceKind = "database"
)

// String returns the string representation of the source kind.
func (k SourceKind) String() string {
	return string(k)
}

// ArtifactSpec describes one logical backup target. The Name is the sole
// identity key across specs, ledger records, and report entries; it never
// changes between runs.
type ArtifactSpec struct {
	Name string
	Kind SourceKind

	// Path is the source directory for SourceDirectory specs.
	Path string

	// Database is the database name for SourceDatabase specs.
	Database string

	// SchemaOnlyTables lists tables dumped with structure but no rows.
	// All other tables are dumped with full data.
	SchemaOnlyTables []string
}

// Artifact is the single local file produced for one spec in one run.
// It is owned by the orchestrator and removed before the processing step
// for its spec completes, on every exit path.
type Artifact struct {
	Name      string
	LocalPath string
	SizeBytes int64
}

// RemoteFileRef identifies an object after a sink upload. It is returned
// for reporting only and never persisted.
type RemoteFileRef struct {
	RemoteID    string
	Name        string
	ContainerID string
}
