package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes creates a SHA256 hex digest of a byte slice. Used to derive
// stable cache keys from image payloads.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
