package domain

import "context"

// Producer materializes a single local artifact file from a source
// specification. Implementations exist per SourceKind.
type Producer interface {
	// Produce writes exactly one file under destDir, at a path derived
	// from the spec's logical name, and returns the resulting artifact.
	// A missing source is reported by wrapping ErrSourceMissing.
	Produce(ctx context.Context, spec ArtifactSpec, destDir string) (Artifact, error)
}
