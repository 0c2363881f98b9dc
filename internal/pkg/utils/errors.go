package utils

import "errors"

var (
	// ErrNotFound indicates a missing record
	ErrNotFound = errors.New("not found")
	// ErrUnavailable indicates the runner does not accept work
	ErrUnavailable = errors.New("unavailable")
)

// Kind classifies errors for call sites that decide on retry or status
type Kind int

const (
	// KindOther - any unclassified error
	KindOther Kind = iota
	// KindTransient - TLS/connectivity failure, may be retried
	KindTransient
	// KindProvider - provider declared the transcription failed
	KindProvider
	// KindNotFound - record is missing
	KindNotFound
	// KindUnavailable - submission rejected
	KindUnavailable
)

// ErrTransient indicates a transient connection error,
// the only error class the transcription attempt retries
type ErrTransient struct {
	err error
}

// NewErrTransient creates new error
func NewErrTransient(err error) error {
	return &ErrTransient{err: err}
}

func (e *ErrTransient) Error() string {
	return e.err.Error()
}

func (e *ErrTransient) Unwrap() error {
	return e.err
}

// ErrProvider indicates a failure reported by the transcription provider itself
type ErrProvider struct {
	msg string
}

// NewErrProvider creates new error, empty message is replaced by a default one
func NewErrProvider(msg string) error {
	if msg == "" {
		msg = "Transcription failed"
	}
	return &ErrProvider{msg: msg}
}

func (e *ErrProvider) Error() string {
	return e.msg
}

// KindOf returns kind of the error
func KindOf(err error) Kind {
	var errT *ErrTransient
	var errP *ErrProvider
	switch {
	case err == nil:
		return KindOther
	case errors.As(err, &errT):
		return KindTransient
	case errors.As(err, &errP):
		return KindProvider
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	}
	return KindOther
}

// IsTransient returns true if err may be retried
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
