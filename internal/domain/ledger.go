package domain

import "context"

// FingerprintStore persists the last-synchronized content hash per logical
// name. Get and Put are independently atomic per name; no cross-key
// transactionality is required or assumed.
type FingerprintStore interface {
	// Get returns the stored hash for name, with found=false when no
	// record exists. Absence is not an error: it means the artifact has
	// definitely changed. Connectivity failures wrap ErrStoreUnavailable.
	Get(ctx context.Context, name string) (hash string, found bool, err error)

	// Put upserts the hash for name. Calling twice with the same hash is
	// a no-op in effect. Connectivity failures wrap ErrStoreUnavailable.
	Put(ctx context.Context, name, hash string) error

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
}
