package service

import (
	"context"
	"strconv"

	"freight/internal/redis"
	"freight/internal/repository"
)

// Organization setting keys consumed by the engine.
const (
	// SettingPayrollWindowMode selects how PayrollService gates trips into
	// a reporting range: by the resolved settlement window or by raw
	// status-event time (legacy).
	SettingPayrollWindowMode = "payroll.window_mode"

	// SettingPayrollCurrencyUnit is the unit attached to settlements.
	SettingPayrollCurrencyUnit = "payroll.currency_unit"

	// SettingVehicleRequired makes a vehicle mandatory at trip creation.
	SettingVehicleRequired = "dispatch.vehicle_required"

	// SettingDriverRequired makes a driver mandatory at trip creation.
	SettingDriverRequired = "dispatch.driver_required"
)

// Payroll window mode values.
const (
	WindowModeResolved    = "resolved"
	WindowModeStatusEvent = "status_event"
)

// Settings provides organization-level configuration with a Redis
// read-through cache. Missing or unreadable settings fall back to the
// supplied default; configuration can never fail a business operation.
type Settings struct {
	repo  repository.SettingRepository
	cache redis.CacheStoreInterface
}

// NewSettings creates a new Settings provider. cache may be nil.
func NewSettings(repo repository.SettingRepository, cache redis.CacheStoreInterface) *Settings {
	return &Settings{repo: repo, cache: cache}
}

// Get returns the setting value for key, or fallback when unset.
func (s *Settings) Get(ctx context.Context, orgID, key, fallback string) string {
	if s.cache != nil {
		if value, ok, err := s.cache.GetSetting(ctx, orgID, key); err == nil && ok {
			return value
		}
	}

	value, err := s.repo.Get(ctx, orgID, key)
	if err != nil {
		return fallback
	}

	if s.cache != nil {
		_ = s.cache.SetSetting(ctx, orgID, key, value)
	}

	return value
}

// GetBool returns the setting parsed as a bool, or fallback.
func (s *Settings) GetBool(ctx context.Context, orgID, key string, fallback bool) bool {
	value := s.Get(ctx, orgID, key, "")
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return parsed
}
