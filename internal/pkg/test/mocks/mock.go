package mocks

import (
	"context"
	"time"

	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/runner"
	"github.com/airenas/scribe/internal/pkg/status"
	"github.com/airenas/scribe/internal/pkg/transcriber/api"
	"github.com/stretchr/testify/mock"
)

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) WriteText(ctx context.Context, key, text string) error {
	args := m.Called(ctx, key, text)
	return args.Error(0)
}

func (m *Filer) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Filer) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *Filer) PresignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *Filer) ResultKey(ownerID, jobID string) string {
	args := m.Called(ownerID, jobID)
	return args.String(0)
}

func (m *Filer) UploadKey(ownerID, fileName string) string {
	args := m.Called(ownerID, fileName)
	return args.String(0)
}

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) InsertJob(ctx context.Context, job *persistence.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *DB) LoadJob(ctx context.Context, id string) (*persistence.Job, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Job](args.Get(0)), args.Error(1)
}

func (m *DB) LoadJobFor(ctx context.Context, ownerID, id string) (*persistence.Job, error) {
	args := m.Called(ctx, ownerID, id)
	return to[*persistence.Job](args.Get(0)), args.Error(1)
}

func (m *DB) ListJobs(ctx context.Context, ownerID string) ([]*persistence.Job, error) {
	args := m.Called(ctx, ownerID)
	return to[[]*persistence.Job](args.Get(0)), args.Error(1)
}

func (m *DB) UpdateJob(ctx context.Context, job *persistence.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *DB) JobIDsByStatus(ctx context.Context, statuses ...status.Status) ([]string, error) {
	args := m.Called(ctx, statuses)
	return to[[]string](args.Get(0)), args.Error(1)
}

func (m *DB) SaveResult(ctx context.Context, job *persistence.Job, tr *persistence.Transcript,
	he *persistence.HistoryEntry) error {
	args := m.Called(ctx, job, tr, he)
	return args.Error(0)
}

func (m *DB) LoadTranscript(ctx context.Context, jobID string) (*persistence.Transcript, error) {
	args := m.Called(ctx, jobID)
	return to[*persistence.Transcript](args.Get(0)), args.Error(1)
}

func (m *DB) ListHistory(ctx context.Context, ownerID string) ([]*persistence.HistoryEntry, error) {
	args := m.Called(ctx, ownerID)
	return to[[]*persistence.HistoryEntry](args.Get(0)), args.Error(1)
}

func (m *DB) LoadHistoryEntry(ctx context.Context, ownerID, id string) (*persistence.HistoryEntry, error) {
	args := m.Called(ctx, ownerID, id)
	return to[*persistence.HistoryEntry](args.Get(0)), args.Error(1)
}

func (m *DB) Live(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Transcriber is transcription client mock
type Transcriber struct{ mock.Mock }

func (m *Transcriber) Transcribe(ctx context.Context, audioURL string, cfg *api.Config) (*api.Result, error) {
	args := m.Called(ctx, audioURL, cfg)
	return to[*api.Result](args.Get(0)), args.Error(1)
}

// Submitter is runner mock, runs units synchronously when RunUnits is set
type Submitter struct {
	mock.Mock
	RunUnits bool
}

func (m *Submitter) Submit(u runner.Unit) error {
	args := m.Called(u)
	err := args.Error(0)
	if err == nil && m.RunUnits {
		_ = u(context.Background())
	}
	return err
}

// Jobs is orchestrator mock
type Jobs struct{ mock.Mock }

func (m *Jobs) CreateJob(ctx context.Context, in *persistence.JobInput) (*persistence.Job, error) {
	args := m.Called(ctx, in)
	return to[*persistence.Job](args.Get(0)), args.Error(1)
}

func (m *Jobs) Resubmit(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Jobs) Recover(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
