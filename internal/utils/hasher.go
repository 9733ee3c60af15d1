package utils

import (
	"crypto/sha1"
	"encoding/hex"
)

// ShortHash returns the first n hex characters of the SHA-1 of input.
// n is clamped to the full digest length.
func ShortHash(input string, n int) string {
	sum := sha1.Sum([]byte(input))
	h := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}
