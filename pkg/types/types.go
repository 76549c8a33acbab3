package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/screa/doorman-solver/pkg/hexcounter"
)

// Errors
var (
	ErrInvalidTarget    = errors.New("invalid target digest")
	ErrInvalidCandidate = errors.New("invalid initial candidate")
	ErrInvalidBits      = errors.New("difficulty bits out of range")
	ErrInvalidBurstLen  = errors.New("burst length must be positive")
	ErrInvalidSleepTime = errors.New("sleep time must not be negative")
	ErrMissingRequest   = errors.New("missing request URL")
	ErrMissingKeyURL    = errors.New("key-only redirect needs a key URL")
)

// MaxBits bounds the difficulty accepted in a puzzle
const MaxBits = 1024

// HashFunc maps a candidate to its lowercase hex digest
type HashFunc func(data []byte) string

// RedirectMode selects how the solution URL is built
type RedirectMode int

const (
	RedirectKeyExpire RedirectMode = iota // request?key=<key>&expire=<expire>
	RedirectKeyOnly                       // <key url><key>
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectKeyExpire:
		return "key-expire"
	case RedirectKeyOnly:
		return "key-only"
	default:
		return "unknown"
	}
}

// PuzzleRequest holds the parameters of one puzzle as issued by the doorman
type PuzzleRequest struct {
	Request   string        // protected resource URL or path
	Args      string        // extra query arguments of the original request
	Target    string        // digest the solution must hash to
	Candidate string        // initial candidate (truncated key)
	Bits      int           // difficulty, the search space is 2^Bits
	Expire    string        // expiry token echoed back with the key
	BurstLen  int           // hash attempts per burst
	SleepTime time.Duration // pause between bursts

	Mode   RedirectMode
	KeyURL string // URL fragment ending in the key parameter, key-only mode
}

// Validate checks the request before a search starts. digestLen is the width
// of the digests produced by the hash in use; zero skips the width check.
func (r *PuzzleRequest) Validate(digestLen int) error {
	if err := hexcounter.Validate(r.Target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if digestLen > 0 && len(r.Target) != digestLen {
		return fmt.Errorf("%w: got %d hex chars, want %d", ErrInvalidTarget, len(r.Target), digestLen)
	}
	if err := hexcounter.Validate(r.Candidate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	if r.Bits < 0 || r.Bits > MaxBits {
		return fmt.Errorf("%w: %d", ErrInvalidBits, r.Bits)
	}
	if r.BurstLen <= 0 {
		return ErrInvalidBurstLen
	}
	if r.SleepTime < 0 {
		return ErrInvalidSleepTime
	}
	switch r.Mode {
	case RedirectKeyOnly:
		if r.KeyURL == "" {
			return ErrMissingKeyURL
		}
	default:
		if r.Request == "" {
			return ErrMissingRequest
		}
	}
	return nil
}

// SearchState is the only state carried from one burst to the next
type SearchState struct {
	Candidate  string
	TriesSoFar int64
}

// Status is the solver state after a burst
type Status int

const (
	Searching Status = iota
	Found
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Searching:
		return "searching"
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Step is the outcome of one burst
type Step struct {
	Status   Status
	State    SearchState // state to resume from when Searching
	Percent  int         // progress estimate, set when the burst did not match
	Key      string      // winning candidate when Found
	Attempts int64       // hashes computed up to and including the match
}

// WorkerConfig contains configuration for the burst worker
type WorkerConfig struct {
	Target   string
	Hash     HashFunc
	Bits     int
	BurstLen int
}

// Result represents a solved puzzle
type Result struct {
	Key      string
	URL      string
	Attempts int64
	Bursts   int
	Duration time.Duration
}
