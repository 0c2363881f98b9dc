package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/runner"
	"github.com/airenas/scribe/internal/pkg/status"
	tapi "github.com/airenas/scribe/internal/pkg/transcriber/api"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const deleteTimeout = 30 * time.Second

// DB provides job persistence functionality
type DB interface {
	InsertJob(ctx context.Context, job *persistence.Job) error
	LoadJob(ctx context.Context, id string) (*persistence.Job, error)
	UpdateJob(ctx context.Context, job *persistence.Job) error
	JobIDsByStatus(ctx context.Context, statuses ...status.Status) ([]string, error)
	SaveResult(ctx context.Context, job *persistence.Job, tr *persistence.Transcript, he *persistence.HistoryEntry) error
}

// Filer provides object storage functionality
type Filer interface {
	WriteText(ctx context.Context, key, text string) error
	Delete(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	ResultKey(ownerID, jobID string) string
}

// Transcriber provides transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string, cfg *tapi.Config) (*tapi.Result, error)
}

// ErrFinished indicates a job in a terminal state
var ErrFinished = errors.New("job is finished")

// ServiceData keeps data required for service work
type ServiceData struct {
	DB           DB
	Filer        Filer
	Transcriber  Transcriber
	Runner       runner.Submitter
	MaxAttempts  int
	RetryUnit    time.Duration
	PresignedTTL time.Duration
}

// Service drives the transcription job state machine
type Service struct {
	data *ServiceData
}

// NewService creates the orchestrator
func NewService(data *ServiceData) (*Service, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Int("attempts", data.MaxAttempts).Str("retryUnit", data.RetryUnit.String()).
		Str("presignedTTL", data.PresignedTTL.String()).Msg("Transcription service")
	return &Service{data: data}, nil
}

// CreateJob stores a pending job and submits it to the runner.
// A rejected submission leaves the job pending and is not an error
func (s *Service) CreateJob(ctx context.Context, in *persistence.JobInput) (*persistence.Job, error) {
	if in == nil {
		return nil, fmt.Errorf("no input")
	}
	now := time.Now()
	job := &persistence.Job{ID: uuid.NewString(), OwnerID: in.OwnerID, Status: status.Pending, Language: in.Language,
		Mode: in.Mode, SourceKey: in.SourceKey, Created: now, Updated: now}
	if err := s.data.DB.InsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("can't insert job: %w", err)
	}
	withJob(goapp.Log.Info(), job).Msg("job created")
	if err := s.submit(job.ID, s.data.Runner); err != nil {
		goapp.Log.Warn().Err(err).Str("ID", job.ID).Msg("runner not ready, job left pending")
	}
	return job, nil
}

// Recover resubmits unfinished jobs to the runner
func (s *Service) Recover(ctx context.Context) (int, error) {
	return s.RecoverPendingJobs(ctx, s.data.Runner)
}

// RecoverPendingJobs resubmits all pending and processing jobs to sm, suitable as runner startup hook
func (s *Service) RecoverPendingJobs(ctx context.Context, sm runner.Submitter) (int, error) {
	ids, err := s.data.DB.JobIDsByStatus(ctx, status.Unfinished()...)
	if err != nil {
		return 0, fmt.Errorf("can't load unfinished jobs: %w", err)
	}
	if len(ids) > 0 {
		goapp.Log.Info().Int("count", len(ids)).Msg("recovering jobs")
	}
	res := 0
	for _, id := range ids {
		if err := s.submit(id, sm); err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Msg("can't recover job")
			continue
		}
		res++
	}
	return res, nil
}

// Resubmit submits one unfinished job again
func (s *Service) Resubmit(ctx context.Context, id string) error {
	job, err := s.data.DB.LoadJob(ctx, id)
	if err != nil {
		return fmt.Errorf("can't load job: %w", err)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%s is %s: %w", id, job.Status, ErrFinished)
	}
	return s.submit(id, s.data.Runner)
}

func (s *Service) submit(id string, sm runner.Submitter) error {
	return sm.Submit(func(ctx context.Context) error {
		return s.Execute(ctx, id)
	})
}

// Execute runs one job to a terminal state.
// Missing or finished jobs are skipped, transcription failures end up in the job record
func (s *Service) Execute(ctx context.Context, id string) error {
	job, err := s.data.DB.LoadJob(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			goapp.Log.Warn().Str("ID", id).Msg("job not found")
			return nil
		}
		return fmt.Errorf("can't load job: %w", err)
	}
	if job.Status.IsTerminal() {
		goapp.Log.Info().Str("ID", id).Str("status", job.Status.String()).Msg("job already finished")
		return nil
	}
	job.Status = status.Processing
	job.Error = utils.ToSQLStr("")
	if err := s.data.DB.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("can't mark processing: %w", err)
	}
	withJob(goapp.Log.Info(), job).Msg("processing")

	out, err := s.transcribe(ctx, job)
	if ctx.Err() != nil {
		goapp.Log.Warn().Str("ID", id).Msg("canceled, job left for recovery")
		return ctx.Err()
	}
	if err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("transcription failed")
		return s.fail(ctx, job, err)
	}
	if err := s.complete(ctx, job, out); err != nil {
		return err
	}
	s.deleteSource(job)
	return nil
}

func (s *Service) fail(ctx context.Context, job *persistence.Job, err error) error {
	job.Status = status.Failed
	job.Error = utils.ToSQLStr(errorMessage(err))
	job.ResultKey = utils.ToSQLStr("")
	if err := s.data.DB.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("can't mark failed: %w", err)
	}
	s.deleteSource(job)
	return nil
}

func (s *Service) complete(ctx context.Context, job *persistence.Job, out *output) error {
	defer goapp.Estimate("save result")()
	key := s.data.Filer.ResultKey(job.OwnerID, job.ID)
	if err := s.data.Filer.WriteText(ctx, key, out.text); err != nil {
		return fmt.Errorf("can't write result: %w", err)
	}
	job.Status = status.Completed
	job.ResultKey = utils.ToSQLStr(key)
	job.ProviderJobID = utils.ToSQLStr(out.providerID)
	job.Error = utils.ToSQLStr("")
	now := time.Now()
	tr := &persistence.Transcript{JobID: job.ID, PlainText: out.text, DiarizedJSON: utils.ToSQLStr(out.diarized),
		Created: now, Updated: now}
	he := &persistence.HistoryEntry{OwnerID: job.OwnerID, JobID: job.ID,
		Title: utils.ToSQLStr(utils.TitleFromKey(job.SourceKey)), Created: now, Updated: now}
	if err := s.data.DB.SaveResult(ctx, job, tr, he); err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}
	withJob(goapp.Log.Info(), job).Str("result", key).Msg("completed")
	return nil
}

// deleteSource runs after the job reached a terminal state, so it must not depend on the unit's ctx
func (s *Service) deleteSource(job *persistence.Job) {
	if job.SourceKey == "" {
		return
	}
	ctx, cf := context.WithTimeout(context.Background(), deleteTimeout)
	defer cf()
	if err := s.data.Filer.Delete(ctx, job.SourceKey); err != nil {
		goapp.Log.Warn().Err(err).Str("ID", job.ID).Str("key", job.SourceKey).Msg("can't delete source")
	}
}

func (s *Service) transcribe(ctx context.Context, job *persistence.Job) (*output, error) {
	cfg := providerConfig(job.Language, job.Mode)
	res, err := withRetry(ctx, s.data.MaxAttempts, s.data.RetryUnit, func() (*tapi.Result, error) {
		audioURL, err := s.data.Filer.PresignedGetURL(ctx, job.SourceKey, s.data.PresignedTTL)
		if err != nil {
			return nil, fmt.Errorf("can't presign source: %w", err)
		}
		return s.data.Transcriber.Transcribe(ctx, audioURL, cfg)
	}, func(err error, wait time.Duration) {
		goapp.Log.Warn().Err(err).Str("ID", job.ID).Str("wait", wait.String()).Msg("transient failure, retrying")
	})
	if err != nil {
		return nil, err
	}
	return shapeOutput(job.Mode, cfg, res)
}

func withJob(ev *zerolog.Event, job *persistence.Job) *zerolog.Event {
	return ev.Str("ID", job.ID).Str("owner", job.OwnerID).Str("status", job.Status.String()).
		Str("language", job.Language).Str("mode", job.Mode)
}

func errorMessage(err error) string {
	if res := err.Error(); res != "" {
		return res
	}
	return "Transcription failed"
}

func validate(data *ServiceData) error {
	if data == nil {
		return fmt.Errorf("no data")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Filer == nil {
		return fmt.Errorf("no Filer")
	}
	if data.Transcriber == nil {
		return fmt.Errorf("no Transcriber")
	}
	if data.Runner == nil {
		return fmt.Errorf("no Runner")
	}
	if data.MaxAttempts < 1 {
		return fmt.Errorf("wrong max attempts %d", data.MaxAttempts)
	}
	if data.RetryUnit <= 0 {
		return fmt.Errorf("wrong retry unit %v", data.RetryUnit)
	}
	if data.PresignedTTL <= 0 {
		return fmt.Errorf("wrong presigned TTL %v", data.PresignedTTL)
	}
	return nil
}
