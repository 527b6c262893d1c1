package redis

import (
	"context"
	"time"

	"freight/internal/domain"
)

// LockStoreInterface defines the interface for distributed trip locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// CacheStoreInterface defines the interface for reference-data caching.
type CacheStoreInterface interface {
	GetStages(ctx context.Context, orgID string) ([]domain.ReportStage, error)
	SetStages(ctx context.Context, orgID string, stages []domain.ReportStage) error
	GetSetting(ctx context.Context, orgID, settingKey string) (string, bool, error)
	SetSetting(ctx context.Context, orgID, settingKey, value string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
