package domain

import "context"

// RemoteSink synchronizes local artifacts to a remote storage backend.
type RemoteSink interface {
	// EnsureContainer idempotently creates a named sub-container under
	// parentID and returns its id. Repeated calls with the same arguments
	// never create duplicates.
	EnsureContainer(ctx context.Context, name, parentID string) (string, error)

	// Upload upserts the artifact into the container, keyed by filename:
	// an existing remote object of the same name is replaced in place, a
	// missing one is created. Failures wrap ErrSink.
	Upload(ctx context.Context, artifact Artifact, containerID string) (RemoteFileRef, error)

	// Validate checks if the sink is reachable and properly configured.
	Validate(ctx context.Context) error
}
