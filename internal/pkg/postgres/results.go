package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const historyColumns = `id, owner_id, job_id, title, created, updated`

// SaveResult marks job completed and stores transcript and history entry in one transaction
func (db *DB) SaveResult(ctx context.Context, job *persistence.Job, tr *persistence.Transcript,
	he *persistence.HistoryEntry) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't start tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			goapp.Log.Warn().Err(err).Str("ID", job.ID).Msg("rollback")
		}
	}()
	if err := updateJob(ctx, tx, job); err != nil {
		return err
	}
	if err := upsertTranscript(ctx, tx, tr); err != nil {
		return err
	}
	if err := upsertHistoryEntry(ctx, tx, he); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit: %w", err)
	}
	return nil
}

// UpsertTranscript creates or replaces job's transcript
func (db *DB) UpsertTranscript(ctx context.Context, tr *persistence.Transcript) error {
	return upsertTranscript(ctx, db.pool, tr)
}

// UpsertHistoryEntry creates history entry for the job, an existing title is preserved
func (db *DB) UpsertHistoryEntry(ctx context.Context, he *persistence.HistoryEntry) error {
	return upsertHistoryEntry(ctx, db.pool, he)
}

func upsertTranscript(ctx context.Context, q querier, tr *persistence.Transcript) error {
	now := time.Now()
	_, err := q.Exec(ctx, `INSERT INTO transcripts(job_id, plain_text, diarized_json, created, updated)
	VALUES($1, $2, $3, $4, $4)
	ON CONFLICT (job_id) DO UPDATE SET 
	plain_text = EXCLUDED.plain_text,
	diarized_json = EXCLUDED.diarized_json,
	updated = EXCLUDED.updated`, tr.JobID, tr.PlainText, tr.DiarizedJSON, now)
	if err != nil {
		return fmt.Errorf("can't save transcript: %w", err)
	}
	tr.Updated = now
	return nil
}

func upsertHistoryEntry(ctx context.Context, q querier, he *persistence.HistoryEntry) error {
	now := time.Now()
	if he.ID == "" {
		he.ID = uuid.New().String()
	}
	_, err := q.Exec(ctx, `INSERT INTO transcription_history(id, owner_id, job_id, title, created, updated)
	VALUES($1, $2, $3, $4, $5, $5)
	ON CONFLICT (job_id) DO UPDATE SET 
	title = COALESCE(NULLIF(transcription_history.title, ''), EXCLUDED.title),
	updated = EXCLUDED.updated`, he.ID, he.OwnerID, he.JobID, he.Title, now)
	if err != nil {
		return fmt.Errorf("can't save history entry: %w", err)
	}
	he.Updated = now
	return nil
}

// LoadTranscript loads transcript by job ID
func (db *DB) LoadTranscript(ctx context.Context, jobID string) (*persistence.Transcript, error) {
	var res persistence.Transcript
	err := db.pool.QueryRow(ctx, `SELECT job_id, plain_text, diarized_json, created, updated FROM transcripts
		WHERE job_id = $1`, jobID).Scan(&res.JobID, &res.PlainText, &res.DiarizedJSON, &res.Created, &res.Updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no transcript %s: %w", jobID, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("can't load transcript: %w", err)
	}
	return &res, nil
}

// ListHistory returns owner's history, newest first
func (db *DB) ListHistory(ctx context.Context, ownerID string) ([]*persistence.HistoryEntry, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+historyColumns+` FROM transcription_history
		WHERE owner_id = $1 ORDER BY created DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("can't select history: %w", err)
	}
	defer rows.Close()
	res := []*persistence.HistoryEntry{}
	for rows.Next() {
		he, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("can't retrieve history: %w", err)
		}
		res = append(res, he)
	}
	return res, rows.Err()
}

// LoadHistoryEntry loads owner's history entry by ID
func (db *DB) LoadHistoryEntry(ctx context.Context, ownerID, id string) (*persistence.HistoryEntry, error) {
	res, err := scanHistory(db.pool.QueryRow(ctx, `SELECT `+historyColumns+` FROM transcription_history
		WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		return nil, fmt.Errorf("can't load history entry %s: %w", id, err)
	}
	return res, nil
}

func scanHistory(row pgx.Row) (*persistence.HistoryEntry, error) {
	var res persistence.HistoryEntry
	err := row.Scan(&res.ID, &res.OwnerID, &res.JobID, &res.Title, &res.Created, &res.Updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}
