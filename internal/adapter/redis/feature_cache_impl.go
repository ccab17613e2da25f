package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

const featureKeyPrefix = "features:"

// FeatureCacheImpl provides a concrete implementation for the FeatureCache
// interface using Redis. Keys are image-content hashes; values are the
// JSON-encoded ImageFeatures.
type FeatureCacheImpl struct {
	client *redis.Client
}

// NewFeatureCache creates a new instance of FeatureCacheImpl.
func NewFeatureCache(client *redis.Client) *FeatureCacheImpl {
	return &FeatureCacheImpl{client: client}
}

func (c *FeatureCacheImpl) key(hash string) string {
	return featureKeyPrefix + hash
}

// Get returns the cached features for an image hash, reporting a miss for
// absent keys. A cached value that no longer decodes or validates counts as
// a miss so it gets overwritten rather than poisoning searches.
func (c *FeatureCacheImpl) Get(ctx context.Context, hash string) (entity.ImageFeatures, bool, error) {
	var features entity.ImageFeatures

	raw, err := c.client.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return features, false, nil
	}
	if err != nil {
		return features, false, err
	}

	if err := json.Unmarshal(raw, &features); err != nil {
		return entity.ImageFeatures{}, false, nil
	}
	if err := features.Validate(); err != nil {
		return entity.ImageFeatures{}, false, nil
	}
	return features, true, nil
}

// Set stores features under an image hash with the given expiry.
func (c *FeatureCacheImpl) Set(ctx context.Context, hash string, features entity.ImageFeatures, ttl time.Duration) error {
	raw, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshaling features: %w", err)
	}
	return c.client.Set(ctx, c.key(hash), raw, ttl).Err()
}
