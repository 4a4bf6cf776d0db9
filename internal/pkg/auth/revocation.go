package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/marketplace-backend/internal/domain/session"
)

// Revocations remembers logged-out token ids until the tokens would have expired anyway
type Revocations struct {
	store session.Store
	now   func() time.Time
}

// NewRevocations creates a revocation list on top of a key-value slot
func NewRevocations(store session.Store) *Revocations {
	return &Revocations{store: store, now: time.Now}
}

func revokedKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// Revoke marks the token behind claims as unusable
func (r *Revocations) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.store.SetJSON(ctx, revokedKey(claims.ID), true, ttl)
}

// IsRevoked reports whether the token id was revoked
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	found, err := r.store.GetJSON(ctx, revokedKey(jti), &revoked)
	if err != nil {
		return false, err
	}
	return found && revoked, nil
}
