package domain

import (
	"errors"
	"fmt"
)

// ErrSourceMissing marks a configured source (directory or database) that
// does not exist. The orchestrator records the artifact as skipped, not
// failed.
var ErrSourceMissing = errors.New("source missing")

// ErrStoreUnavailable marks a fingerprint store that cannot be reached.
// This is fatal for the whole run: without the ledger, change detection
// cannot be trusted in either direction.
var ErrStoreUnavailable = errors.New("fingerprint store unavailable")

// ErrSink marks a remote sink failure after retries were exhausted. It is
// recorded per artifact and never aborts the run.
var ErrSink = errors.New("remote sink error")

// ProducerError wraps a failure to materialize one artifact.
type ProducerError struct {
	Name string
	Err  error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("produce %s: %v", e.Name, e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}
