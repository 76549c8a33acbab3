package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/screa/doorman-solver/internal/crypto"
	"github.com/screa/doorman-solver/internal/logger"
	"github.com/screa/doorman-solver/pkg/redirect"
	"github.com/screa/doorman-solver/pkg/types"
	"github.com/screa/doorman-solver/pkg/worker"
)

// ErrSearchSpaceExhausted is returned once the progress estimate passes 100%
var ErrSearchSpaceExhausted = errors.New("search space exhausted without a match")

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Solver drives the burst worker: it runs one burst at a time, pauses
// between bursts and redirects once the puzzle is solved
type Solver struct {
	request     *types.PuzzleRequest
	logger      *logger.Logger
	progress    ProgressSink
	navigator   Navigator
	clock       Clock
	worker      *worker.Worker
	attempts    int64
	logInterval time.Duration

	mu     sync.RWMutex
	state  types.SearchState
	bursts int
}

// NewSolver creates a solver for req. The request is checked up front;
// malformed parameters are reported here rather than during the search.
func NewSolver(req *types.PuzzleRequest, hash types.HashFunc, log *logger.Logger, progress ProgressSink, nav Navigator) (*Solver, error) {
	if err := req.Validate(crypto.DigestLen(hash)); err != nil {
		return nil, fmt.Errorf("invalid puzzle: %w", err)
	}

	s := &Solver{
		request:   req,
		logger:    log,
		progress:  progress,
		navigator: nav,
		clock:     realClock{},
		state:     types.SearchState{Candidate: req.Candidate},
	}
	s.worker = worker.NewWorker(&types.WorkerConfig{
		Target:   req.Target,
		Hash:     hash,
		Bits:     req.Bits,
		BurstLen: req.BurstLen,
	}, &s.attempts)
	return s, nil
}

// SetClock replaces the timer used between bursts
func (s *Solver) SetClock(c Clock) {
	s.clock = c
}

// SetLogInterval enables periodic progress logging while solving
func (s *Solver) SetLogInterval(d time.Duration) {
	s.logInterval = d
}

// Solve searches until the puzzle is solved, the estimate runs past the
// declared search space or ctx is cancelled. Cancellation takes effect during
// the pause between bursts. On success the solution URL has been handed to
// the navigator.
func (s *Solver) Solve(ctx context.Context) (*types.Result, error) {
	start := time.Now()

	if s.logInterval > 0 {
		ticker := time.NewTicker(s.logInterval)
		logDone := make(chan struct{})
		go s.periodicLogger(ticker, logDone, start)
		defer func() {
			ticker.Stop()
			close(logDone)
		}()
	}

	for {
		step, err := s.worker.RunBurst(s.State())
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.bursts++
		bursts := s.bursts
		if step.Status == types.Searching {
			s.state = step.State
		}
		s.mu.Unlock()

		switch step.Status {
		case types.Found:
			url := redirect.BuildURL(s.request, step.Key)
			s.logger.Debugf("Solved after %d attempts in %d bursts: %s", step.Attempts, bursts, url)
			result := &types.Result{
				Key:      step.Key,
				URL:      url,
				Attempts: step.Attempts,
				Bursts:   bursts,
				Duration: time.Since(start),
			}
			if err := s.navigator.Navigate(ctx, url); err != nil {
				return result, fmt.Errorf("redirect: %w", err)
			}
			return result, nil

		case types.Exhausted:
			s.logger.Debugf("Giving up after %d attempts (%d%% of 2^%d)", step.Attempts, step.Percent, s.request.Bits)
			s.progress.Exhausted()
			return nil, ErrSearchSpaceExhausted

		default:
			s.progress.Report(step.Percent)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.clock.After(s.request.SleepTime):
		}
	}
}

// State returns where the search will resume
func (s *Solver) State() types.SearchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Attempts returns the number of hashes computed so far
func (s *Solver) Attempts() int64 {
	return atomic.LoadInt64(&s.attempts)
}

// periodicLogger logs solving progress at regular intervals
func (s *Solver) periodicLogger(ticker *time.Ticker, done chan struct{}, start time.Time) {
	for {
		select {
		case <-ticker.C:
			attempts := s.Attempts()
			elapsed := time.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(attempts) / elapsed.Seconds()
			}

			state := s.State()
			s.logger.Printf("Progress: %d attempts, %.2f hashes/sec, %d%% of 2^%d, candidate %s",
				attempts, rate, worker.Percent(state.TriesSoFar, s.request.Bits), s.request.Bits, state.Candidate)
		case <-done:
			return
		}
	}
}
