package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/status"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// querier is implemented by both pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const jobColumns = `id, owner_id, status, language, mode, source_key, result_key, provider_job_id, error, created, updated`

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	return &DB{pool: pool}, nil
}

// InsertJob inserts a new job into DB
func (db *DB) InsertJob(ctx context.Context, job *persistence.Job) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO transcription_jobs(id, owner_id, status, language, mode, source_key, 
	created, updated) VALUES($1, $2, $3, $4, $5, $6, $7, $8)`, job.ID, job.OwnerID, job.Status.String(),
		job.Language, job.Mode, job.SourceKey, job.Created, job.Updated)
	if err != nil {
		return fmt.Errorf("can't insert job: %w", err)
	}
	return nil
}

// LoadJob loads job by ID, returns utils.ErrNotFound if there is no such job
func (db *DB) LoadJob(ctx context.Context, id string) (*persistence.Job, error) {
	res, err := scanJob(db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM transcription_jobs
		WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("can't load job %s: %w", id, err)
	}
	return res, nil
}

// LoadJobFor loads job by ID for the owner
func (db *DB) LoadJobFor(ctx context.Context, ownerID, id string) (*persistence.Job, error) {
	res, err := scanJob(db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM transcription_jobs
		WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		return nil, fmt.Errorf("can't load job %s: %w", id, err)
	}
	return res, nil
}

// ListJobs returns owner's jobs, newest first
func (db *DB) ListJobs(ctx context.Context, ownerID string) ([]*persistence.Job, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+jobColumns+` FROM transcription_jobs
		WHERE owner_id = $1 ORDER BY created DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("can't select jobs: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("can't retrieve job: %w", err)
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

// UpdateJob saves job's mutable fields, always bumps updated time
func (db *DB) UpdateJob(ctx context.Context, job *persistence.Job) error {
	return updateJob(ctx, db.pool, job)
}

func updateJob(ctx context.Context, q querier, job *persistence.Job) error {
	now := time.Now()
	cmd, err := q.Exec(ctx, `UPDATE transcription_jobs SET 
	status = $2, 
	result_key = $3,
	provider_job_id = $4,
	error = $5,
	updated = $6
	WHERE id = $1`, job.ID, job.Status.String(), job.ResultKey, job.ProviderJobID, job.Error, now)
	if err != nil {
		return fmt.Errorf("can't update job: %w", err)
	}
	if cmd.RowsAffected() != 1 {
		return fmt.Errorf("can't update job %s: %w", job.ID, utils.ErrNotFound)
	}
	job.Updated = now
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'transcription_jobs')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}

func scanJob(row pgx.Row) (*persistence.Job, error) {
	var res persistence.Job
	var st string
	err := row.Scan(&res.ID, &res.OwnerID, &st, &res.Language, &res.Mode, &res.SourceKey,
		&res.ResultKey, &res.ProviderJobID, &res.Error, &res.Created, &res.Updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	res.Status = status.From(st)
	return &res, nil
}
