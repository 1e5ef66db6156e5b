package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// HashPrefix returns the first prefixLen characters of SHA256(input).
// Used for compact cache keys.
func HashPrefix(input string, prefixLen int) string {
	full := SHA256Hex(input)
	if prefixLen > len(full) {
		return full
	}
	return full[:prefixLen]
}

// HashIP returns a short, irreversible prefix of SHA256(ip) for log correlation.
func HashIP(ip string) string {
	return HashPrefix(ip, 12)
}
