// Package token mints opaque random identifiers for share links and storage
// keys.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Bytes is the entropy of every token: 128 bits.
const Bytes = 16

// New returns Bytes random bytes encoded as unpadded base64url (22 chars).
func New() (string, error) {
	b := make([]byte, Bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
