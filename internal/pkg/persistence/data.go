package persistence

import (
	"database/sql"
	"time"

	"github.com/airenas/scribe/internal/pkg/status"
)

const (
	// ModeMono - single speaker, no diarization
	ModeMono = "mono"
	// ModeDialogue - diarization with two expected speakers
	ModeDialogue = "dialogue"
	// LanguageAuto asks the provider to detect language
	LanguageAuto = "auto"
)

type (

	// JobInput is a request to create a job
	JobInput struct {
		OwnerID   string
		SourceKey string
		Language  string
		Mode      string
	}

	// Job transcription job table
	Job struct {
		ID            string
		OwnerID       string
		Status        status.Status
		Language      string
		Mode          string
		SourceKey     string
		ResultKey     sql.NullString
		ProviderJobID sql.NullString
		Error         sql.NullString
		Created       time.Time
		Updated       time.Time
	}

	// Transcript keeps the result text of a completed job, key is job ID
	Transcript struct {
		JobID        string
		PlainText    string
		DiarizedJSON sql.NullString
		Created      time.Time
		Updated      time.Time
	}

	// HistoryEntry is a user facing record of a completed job
	HistoryEntry struct {
		ID      string
		OwnerID string
		JobID   string
		Title   sql.NullString
		Created time.Time
		Updated time.Time
	}

	// Utterance is one speaker segment stored in Transcript.DiarizedJSON
	Utterance struct {
		Speaker string `json:"speaker"`
		Start   int64  `json:"start"`
		End     int64  `json:"end"`
		Text    string `json:"text"`
	}
)
