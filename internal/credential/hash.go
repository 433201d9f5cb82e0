package credential

import (
	"crypto/sha256" // SHA-256 digest
	"encoding/hex"  // Hex encoding
	"regexp"        // Hash format validation
	"strings"       // Hash normalization
	"time"          // Issue date handling
)

// issueDateLayout is the frozen wire form of the issue date inside the hash
// preimage: an ISO-8601 instant in UTC with millisecond precision. Changing
// this layout invalidates every previously anchored hash, so it is a
// versioned contract, not a formatting choice.
const issueDateLayout = "2006-01-02T15:04:05.000Z07:00"

// hashPattern is the wire format of a credential hash: 0x plus 64 lowercase hex characters
var hashPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// DeriveHash produces the deterministic content hash of a credential's
// immutable identity triple. Identical inputs always produce identical
// output; there is no randomness and no I/O.
func DeriveHash(id, issuer string, issueDate time.Time) (string, error) {
	// Refuse to hash a malformed identity rather than producing a digest
	// of garbage that could never be verified
	if id == "" || issuer == "" || issueDate.IsZero() {
		return "", ErrInvalidInput
	}
	preimage := id + issuer + issueDate.UTC().Format(issueDateLayout) // Concatenate the identity triple
	sum := sha256.Sum256([]byte(preimage))                            // Digest the UTF-8 bytes
	return "0x" + hex.EncodeToString(sum[:]), nil                     // Hex-encode with the 0x prefix
}

// NormalizeHash lowercases a presented hash and validates the wire format.
// Returns ErrInvalidInput for anything that is not 0x plus 64 hex characters.
func NormalizeHash(hash string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(hash)) // Lowercase is canonical on the wire
	if !hashPattern.MatchString(h) {
		return "", ErrInvalidInput
	}
	return h, nil
}
