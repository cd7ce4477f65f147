// Package checksum computes content digests used for optimistic
// concurrency (If-Match) and index change detection.
package checksum

import (
	"crypto/sha256"
	"fmt"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
