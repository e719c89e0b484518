package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token size constants, in bytes before encoding.
const (
	// TokenSize128 is enough for short-lived, low-value tokens.
	TokenSize128 = 16
	// TokenSize256 is the recommended size for invitation and recovery
	// tokens (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken returns a cryptographically random opaque token of the
// given byte length, base64url encoded without padding. Nothing about the
// owner is derivable from the value.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the deterministic SHA-256 fingerprint of a raw
// token. Only fingerprints are persisted; a database leak therefore never
// exposes redeemable token values.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
