package auth

import (
	"context"
	"time"

	"barstock-backend/internal/cache"
)

const revokedPrefix = "revoked-token:"

// Revocations remembers signed-out token ids until the tokens expire.
type Revocations struct {
	store cache.Store
	now   func() time.Time
}

func NewRevocations(store cache.Store) *Revocations {
	return &Revocations{store: store, now: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil // already unusable
	}
	return r.store.Set(ctx, revokedPrefix+tokenID, "1", ttl)
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, found, err := r.store.Get(ctx, revokedPrefix+tokenID)
	return found, err
}
