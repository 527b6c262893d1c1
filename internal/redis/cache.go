package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"freight/internal/domain"
)

// CacheStore handles reference-data caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	StageCacheTTL   = 5 * time.Minute  // Stage catalogs change rarely
	SettingCacheTTL = 60 * time.Second // Settings may be edited by admins
)

// Key prefixes
const (
	stageCachePrefix   = "cache:stages:"
	settingCachePrefix = "cache:setting:"
)

// GetStages retrieves an organization's stage catalog from cache.
// Returns nil on a cache miss.
func (s *CacheStore) GetStages(ctx context.Context, orgID string) ([]domain.ReportStage, error) {
	key := stageCachePrefix + orgID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var stages []domain.ReportStage
	if err := json.Unmarshal(data, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// SetStages stores an organization's stage catalog in cache.
func (s *CacheStore) SetStages(ctx context.Context, orgID string, stages []domain.ReportStage) error {
	key := stageCachePrefix + orgID
	data, err := json.Marshal(stages)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, StageCacheTTL).Err()
}

// InvalidateStages removes an organization's stage catalog from cache.
func (s *CacheStore) InvalidateStages(ctx context.Context, orgID string) error {
	key := stageCachePrefix + orgID
	return s.client.Del(ctx, key).Err()
}

// GetSetting retrieves an org setting from cache. The second return value
// is false on a cache miss.
func (s *CacheStore) GetSetting(ctx context.Context, orgID, settingKey string) (string, bool, error) {
	key := settingCachePrefix + orgID + ":" + settingKey
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil // Cache miss
		}
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores an org setting in cache.
func (s *CacheStore) SetSetting(ctx context.Context, orgID, settingKey, value string) error {
	key := settingCachePrefix + orgID + ":" + settingKey
	return s.client.Set(ctx, key, value, SettingCacheTTL).Err()
}
