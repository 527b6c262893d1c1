package postgres

import (
	"context"
	"database/sql"

	"freight/internal/domain"
	"freight/internal/repository"
)

// StageRepository is a PostgreSQL implementation of repository.StageRepository.
type StageRepository struct {
	q Querier
}

// NewStageRepository creates a new PostgreSQL stage repository.
func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{q: db}
}

// ListByOrg returns the organization's report stages ordered by display
// order ascending.
func (r *StageRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.ReportStage, error) {
	query := `
		SELECT id, org_id, type, name, display_order, photo_required, bill_of_lading_required
		FROM driver_report_stages
		WHERE org_id = $1
		ORDER BY display_order ASC
	`

	rows, err := r.q.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []domain.ReportStage
	for rows.Next() {
		var stage domain.ReportStage
		if err := rows.Scan(
			&stage.ID,
			&stage.OrgID,
			&stage.Type,
			&stage.Name,
			&stage.DisplayOrder,
			&stage.PhotoRequired,
			&stage.BillOfLadingRequired,
		); err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	return stages, rows.Err()
}

// Ensure StageRepository implements repository.StageRepository.
var _ repository.StageRepository = (*StageRepository)(nil)
