package solver

import (
	"context"
	"time"
)

//go:generate mockgen -source=interfaces.go -destination=./solver_mock.go -package=solver

// ProgressSink receives the progress estimate after every unmatched burst
type ProgressSink interface {
	Report(percent int)
	Exhausted()
}

// Navigator hands the solution URL back to the doorman
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Clock schedules the resumption of the search after a pause
type Clock interface {
	After(d time.Duration) <-chan time.Time
}
