// Package checksum computes streaming SHA-256 digests of file content.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// New returns a fresh SHA-256 hasher for tee-style use: the upload pipeline
// writes file bytes to disk and the hasher in a single pass.
func New() hash.Hash {
	return sha256.New()
}

// Encode renders a finished hasher as a lowercase hex digest.
func Encode(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Sum consumes r to EOF and returns the hex digest plus the number of bytes
// read. The reader is consumed exactly once and never buffered whole. If the
// stream fails before completion no digest is returned.
func Sum(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash stream: %w", err)
	}
	return Encode(h), n, nil
}
