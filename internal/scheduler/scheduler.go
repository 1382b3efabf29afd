// Package scheduler runs a job on a trigger without ever overlapping runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of the scheduler loop
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "RUNNING"
	}
	return "IDLE"
}

// Job is one cycle of work
type Job func(ctx context.Context) error

// Config configures a Scheduler
type Config struct {
	Name       string
	Trigger    Trigger
	RunOnStart bool
}

// Scheduler drives a Job from a Trigger. Triggers that elapse while a cycle
// is running collapse into a single queued cycle.
type Scheduler struct {
	name       string
	trigger    Trigger
	runOnStart bool
	job        Job
	now        func() time.Time
	logger     zerolog.Logger

	state   atomic.Int32
	runs    atomic.Int64
	lastRun atomic.Int64 // unix nanos of the last cycle start

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler for job
func New(cfg Config, job Job) *Scheduler {
	name := cfg.Name
	if name == "" {
		name = "scheduler"
	}
	return &Scheduler{
		name:       name,
		trigger:    cfg.Trigger,
		runOnStart: cfg.RunOnStart,
		job:        job,
		now:        time.Now,
		logger:     log.With().Str("component", "scheduler").Str("job", name).Logger(),
	}
}

// Run blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Str("trigger", s.trigger.String()).
		Bool("run_on_start", s.runOnStart).
		Msg("scheduler started")

	last := s.now()
	if s.runOnStart {
		s.runOnce(ctx)
	}

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("scheduler stopped")
			return
		}

		next := s.trigger.Next(last)
		now := s.now()

		if next.After(now) {
			s.logger.Debug().Time("next_run", next).Msg("waiting for next trigger")

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info().Msg("scheduler stopped")
				return
			case <-timer.C:
			}
			last = next
		} else {
			s.logger.Warn().
				Time("missed", next).
				Msg("trigger elapsed during previous cycle, running queued cycle")
			last = now
		}

		s.runOnce(ctx)
	}
}

// Start runs the loop in the background until Stop is called or ctx ends
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx)
	}()
}

// Stop cancels the loop and waits for the running cycle to finish
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// runOnce executes the job, recovering panics so the loop keeps going
func (s *Scheduler) runOnce(ctx context.Context) {
	s.state.Store(int32(StateRunning))
	defer s.state.Store(int32(StateIdle))

	start := s.now()
	s.lastRun.Store(start.UnixNano())
	s.runs.Add(1)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprint(r)).Msg("cycle panicked")
		}
	}()

	if err := s.job(ctx); err != nil {
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("cycle failed")
		return
	}

	s.logger.Debug().Dur("duration", time.Since(start)).Msg("cycle finished")
}

// State returns whether a cycle is running
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Runs returns how many cycles have started
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// LastRun returns when the last cycle started, zero if none did
func (s *Scheduler) LastRun() time.Time {
	n := s.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Describe returns a human readable form of the trigger
func (s *Scheduler) Describe() string {
	return s.trigger.String()
}
