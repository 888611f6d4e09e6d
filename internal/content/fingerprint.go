package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes a content payload before fingerprinting: line
// endings become LF and surrounding whitespace is dropped.
func Normalize(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	return strings.TrimSpace(body)
}

// Fingerprint returns the hex SHA-256 of the normalized payload bytes. No
// re-encoding happens, so distinct byte sequences never share a digest.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(Normalize(body)))
	return hex.EncodeToString(sum[:])
}
