// Package fingerprint computes content digests used for change detection.
//
// The digest is xxhash-64: fast, stable, and deterministic over byte
// content. It is not a cryptographic hash and is never used for integrity
// or security decisions, only to decide whether an artifact changed since
// the previous run.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// chunkSize bounds memory use regardless of artifact size.
const chunkSize = 256 * 1024

// File returns the digest of the file's byte content as a 16-digit hex
// string. Identical content always yields an identical digest, independent
// of file name or modification time.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Reader(f)
}

// Reader digests an arbitrary stream in fixed-size chunks.
func Reader(r io.Reader) (string, error) {
	d := xxhash.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(d, r, buf); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
