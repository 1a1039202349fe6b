package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

type GapStatusRepository struct {
	db *sql.DB
}

func NewGapStatusRepository(db *sql.DB) *GapStatusRepository {
	return &GapStatusRepository{db: db}
}

func (r *GapStatusRepository) ListGapStatuses(ctx context.Context, profileID string) (map[string]domain.GapStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT gap_id, status
FROM gap_statuses
WHERE profile_id = $1
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list gap statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.GapStatus)
	for rows.Next() {
		var gapID, status string
		if err := rows.Scan(&gapID, &status); err != nil {
			return nil, fmt.Errorf("scan gap status: %w", err)
		}
		out[gapID] = domain.GapStatus(status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gap statuses: %w", err)
	}
	return out, nil
}

func (r *GapStatusRepository) SetGapStatus(ctx context.Context, profileID, gapID string, status domain.GapStatus) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO gap_statuses (profile_id, gap_id, status, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (profile_id, gap_id) DO UPDATE
SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
`, profileID, gapID, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert gap status: %w", err)
	}
	return nil
}
