package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scribe/internal/pkg/utils"
	"golang.org/x/sync/semaphore"
)

// State of the runner lifecycle
type State int

const (
	// Stopped - initial state, no units accepted
	Stopped State = iota
	// Starting - startup hook is running
	Starting
	// Running - accepts units
	Running
	// Stopping - waits for in-flight units
	Stopping
)

var stateName = map[State]string{Stopped: "stopped", Starting: "starting", Running: "running", Stopping: "stopping"}

func (s State) String() string {
	return stateName[s]
}

// Unit is one piece of work executed by the runner
type Unit func(ctx context.Context) error

// Submitter accepts units for execution
type Submitter interface {
	Submit(Unit) error
}

// StartupHook is invoked by Start before the runner accepts external submissions
type StartupHook func(ctx context.Context, s Submitter) error

// Runner executes units with a global concurrency ceiling
type Runner struct {
	limit       int64
	stopTimeout time.Duration

	lock   sync.Mutex
	state  State
	hook   StartupHook
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// New creates a stopped runner
func New(limit int, stopTimeout time.Duration) (*Runner, error) {
	if limit < 1 {
		return nil, fmt.Errorf("wrong limit %d", limit)
	}
	if stopTimeout <= 0 {
		return nil, fmt.Errorf("wrong stop timeout %v", stopTimeout)
	}
	return &Runner{limit: int64(limit), stopTimeout: stopTimeout}, nil
}

// SetStartupHook registers a callback for Start
func (r *Runner) SetStartupHook(h StartupHook) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.hook = h
}

// State returns current state
func (r *Runner) State() State {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.state
}

// Start initializes the limiter, runs the startup hook and switches to Running.
// Start on a running runner does nothing
func (r *Runner) Start(ctx context.Context) error {
	r.lock.Lock()
	switch r.state {
	case Running:
		r.lock.Unlock()
		return nil
	case Starting, Stopping:
		st := r.state
		r.lock.Unlock()
		return fmt.Errorf("can't start while %s: %w", st, utils.ErrUnavailable)
	}
	r.sem = semaphore.NewWeighted(r.limit)
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.wg = &sync.WaitGroup{}
	r.state = Starting
	hook := r.hook
	r.lock.Unlock()

	goapp.Log.Info().Int64("limit", r.limit).Msg("Starting runner")
	if hook != nil {
		if err := hook(ctx, &startSubmitter{r: r}); err != nil {
			goapp.Log.Error().Err(err).Msg("startup hook failed")
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.state = Running
	goapp.Log.Info().Msg("Runner started")
	return nil
}

// Submit schedules the unit, it never waits for a free slot.
// Returns utils.ErrUnavailable if the runner is not running
func (r *Runner) Submit(u Unit) error {
	return r.submit(u, false)
}

type startSubmitter struct {
	r *Runner
}

func (s *startSubmitter) Submit(u Unit) error {
	return s.r.submit(u, true)
}

func (r *Runner) submit(u Unit, starting bool) error {
	if u == nil {
		return fmt.Errorf("no unit")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if !(r.state == Running || (starting && r.state == Starting)) {
		return fmt.Errorf("runner is %s: %w", r.state, utils.ErrUnavailable)
	}
	r.wg.Add(1)
	go run(r.ctx, r.sem, r.wg, u)
	return nil
}

func run(ctx context.Context, sem *semaphore.Weighted, wg *sync.WaitGroup, u Unit) {
	defer wg.Done()
	if err := sem.Acquire(ctx, 1); err != nil {
		goapp.Log.Debug().Err(err).Msg("unit canceled before start")
		return
	}
	defer sem.Release(1)
	if ctx.Err() != nil {
		goapp.Log.Debug().Msg("unit canceled before start")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			goapp.Log.Error().Interface("panic", r).Msg("unit panic")
		}
	}()
	if err := u(ctx); err != nil {
		goapp.Log.Error().Err(err).Msg("unit failed")
	}
}

// Stop cancels in-flight units and waits for them up to the configured timeout
func (r *Runner) Stop() error {
	r.lock.Lock()
	switch r.state {
	case Stopped:
		r.lock.Unlock()
		return nil
	case Starting, Stopping:
		st := r.state
		r.lock.Unlock()
		return fmt.Errorf("can't stop while %s: %w", st, utils.ErrUnavailable)
	}
	r.state = Stopping
	r.cancel()
	wg := r.wg
	r.lock.Unlock()

	goapp.Log.Info().Msg("Stopping runner")
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
		goapp.Log.Info().Msg("Runner stopped")
	case <-time.After(r.stopTimeout):
		err = fmt.Errorf("units did not finish in %v", r.stopTimeout)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.state = Stopped
	r.sem = nil
	return err
}
