// Package sharetoken generates the opaque tokens that address public share links.
package sharetoken

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// EntropyBytes is the number of random bytes behind each token (256 bits).
const EntropyBytes = 32

// Length is the encoded token length: base64url without padding.
var Length = base64.RawURLEncoding.EncodedLen(EntropyBytes)

func Generate() (string, error) {
	buf := make([]byte, EntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Valid reports whether s has the shape of a generated token. It lets
// callers reject garbage before touching storage.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(decoded) == EntropyBytes
}
