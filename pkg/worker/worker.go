package worker

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/screa/doorman-solver/pkg/hexcounter"
	"github.com/screa/doorman-solver/pkg/types"
)

// Worker runs bursts of hash attempts for a single puzzle
type Worker struct {
	config   *types.WorkerConfig
	attempts *int64
	counter  *hexcounter.Counter
}

// NewWorker creates a new worker instance. attempts may be nil; when set it
// is bumped atomically for every hash so it can be read from other goroutines.
func NewWorker(config *types.WorkerConfig, attempts *int64) *Worker {
	return &Worker{
		config:   config,
		attempts: attempts,
	}
}

// RunBurst performs up to BurstLen hash-and-compare iterations starting at
// state.Candidate and returns where the search stands afterwards.
func (w *Worker) RunBurst(state types.SearchState) (types.Step, error) {
	if err := w.load(state.Candidate); err != nil {
		return types.Step{}, err
	}

	for i := 0; i < w.config.BurstLen; i++ {
		if w.attempts != nil {
			atomic.AddInt64(w.attempts, 1)
		}
		if w.config.Hash(w.counter.Bytes()) == w.config.Target {
			return types.Step{
				Status:   types.Found,
				State:    state,
				Key:      w.counter.String(),
				Attempts: state.TriesSoFar + int64(i) + 1,
			}, nil
		}
		w.counter.Increment()
	}

	next := types.SearchState{
		Candidate:  w.counter.String(),
		TriesSoFar: state.TriesSoFar + int64(w.config.BurstLen),
	}
	percent := Percent(next.TriesSoFar, w.config.Bits)

	step := types.Step{
		Status:   types.Searching,
		State:    next,
		Percent:  percent,
		Attempts: next.TriesSoFar,
	}
	if percent > 100 {
		step.Status = types.Exhausted
	}
	return step, nil
}

// load points the counter at candidate, reusing the buffer when the length
// is unchanged
func (w *Worker) load(candidate string) error {
	if w.counter == nil || w.counter.Len() != len(candidate) {
		c, err := hexcounter.New(candidate)
		if err != nil {
			return fmt.Errorf("load candidate: %w", err)
		}
		w.counter = c
		return nil
	}
	if err := w.counter.Reset(candidate); err != nil {
		return fmt.Errorf("load candidate: %w", err)
	}
	return nil
}

// Percent estimates progress as floor(tries / 2^bits * 100). It is an
// estimate of the expected work, so it keeps growing past 100.
func Percent(tries int64, bits int) int {
	p := math.Floor(float64(tries) / math.Exp2(float64(bits)) * 100.0)
	if p > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(p)
}
