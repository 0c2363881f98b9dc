package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/airenas/scribe/internal/pkg/persistence"
	"github.com/airenas/scribe/internal/pkg/status"
	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/google/uuid"
)

// memDB is an in-memory job store
type memDB struct {
	lock        sync.Mutex
	jobs        map[string]persistence.Job
	transcripts map[string]persistence.Transcript
	history     map[string]persistence.HistoryEntry
	updates     int
}

func newMemDB() *memDB {
	return &memDB{jobs: map[string]persistence.Job{}, transcripts: map[string]persistence.Transcript{},
		history: map[string]persistence.HistoryEntry{}}
}

func (db *memDB) InsertJob(ctx context.Context, job *persistence.Job) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.jobs[job.ID] = *job
	return nil
}

func (db *memDB) LoadJob(ctx context.Context, id string) (*persistence.Job, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	res, ok := db.jobs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &res, nil
}

func (db *memDB) UpdateJob(ctx context.Context, job *persistence.Job) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	return db.updateJob(job)
}

func (db *memDB) updateJob(job *persistence.Job) error {
	if _, ok := db.jobs[job.ID]; !ok {
		return utils.ErrNotFound
	}
	job.Updated = time.Now()
	db.jobs[job.ID] = *job
	db.updates++
	return nil
}

func (db *memDB) JobIDsByStatus(ctx context.Context, statuses ...status.Status) ([]string, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	var jobs []persistence.Job
	for _, j := range db.jobs {
		for _, st := range statuses {
			if j.Status == st {
				jobs = append(jobs, j)
			}
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Created.Before(jobs[j].Created) })
	res := make([]string, 0, len(jobs))
	for _, j := range jobs {
		res = append(res, j.ID)
	}
	return res, nil
}

func (db *memDB) SaveResult(ctx context.Context, job *persistence.Job, tr *persistence.Transcript,
	he *persistence.HistoryEntry) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if err := db.updateJob(job); err != nil {
		return err
	}
	db.transcripts[tr.JobID] = *tr
	if old, ok := db.history[he.JobID]; ok {
		if old.Title.Valid && old.Title.String != "" {
			he.Title = old.Title
		}
		he.ID = old.ID
	}
	if he.ID == "" {
		he.ID = uuid.NewString()
	}
	db.history[he.JobID] = *he
	return nil
}

func (db *memDB) job(id string) persistence.Job {
	db.lock.Lock()
	defer db.lock.Unlock()
	return db.jobs[id]
}
