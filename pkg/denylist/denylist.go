// Package denylist records revoked access tokens until their natural expiry so that
// signature-only authorization can still reject a logged-out token.
package denylist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type DenyList interface {
	// Deny records raw until expiresAt. Tokens already past expiresAt are ignored.
	Deny(ctx context.Context, raw string, expiresAt time.Time) error
	IsDenied(ctx context.Context, raw string) (bool, error)
}

// key stores a digest so the deny-list never holds a usable bearer token.
func key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
