package postgres

import (
	"context"
	"database/sql"
	"errors"

	"freight/internal/repository"
)

// SettingRepository is a PostgreSQL implementation of repository.SettingRepository.
type SettingRepository struct {
	q Querier
}

// NewSettingRepository creates a new PostgreSQL setting repository.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{q: db}
}

// Get returns the organization setting value for key.
func (r *SettingRepository) Get(ctx context.Context, orgID, key string) (string, error) {
	var value string
	err := r.q.QueryRowContext(ctx,
		`SELECT value FROM org_settings WHERE org_id = $1 AND key = $2`,
		orgID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}

	return value, nil
}

// Ensure SettingRepository implements repository.SettingRepository.
var _ repository.SettingRepository = (*SettingRepository)(nil)
