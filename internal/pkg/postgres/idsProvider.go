package postgres

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/status"
)

// JobIDsByStatus returns IDs of jobs in any of the statuses, oldest first
func (db *DB) JobIDsByStatus(ctx context.Context, statuses ...status.Status) ([]string, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	goapp.Log.Debug().Strs("statuses", names).Msg("selecting jobs")
	rows, err := db.pool.Query(ctx, `SELECT id FROM transcription_jobs WHERE status = ANY($1) ORDER BY created`, names)
	if err != nil {
		return nil, fmt.Errorf("can't select IDs: %w", err)
	}
	defer rows.Close()

	res := []string{}
	for rows.Next() {
		var id string
		err := rows.Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("can't retrieve IDs: %w", err)
		}
		res = append(res, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("can't retrieve IDs: %w", err)
	}
	return res, nil
}
