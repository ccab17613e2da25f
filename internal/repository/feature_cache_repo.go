package repository

import (
	"context"
	"time"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

// FeatureCache caches extraction results keyed by a hash of the image bytes,
// so re-querying with the same image skips the provider round trip. Cache
// failures are never fatal to a request; callers log and continue.
type FeatureCache interface {
	// Get returns the cached features for a key and whether the key was
	// present.
	Get(ctx context.Context, key string) (entity.ImageFeatures, bool, error)
	// Set stores features under a key with an expiry.
	Set(ctx context.Context, key string, features entity.ImageFeatures, ttl time.Duration) error
}
