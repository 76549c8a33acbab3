package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/screa/doorman-solver/internal/crypto"
	"github.com/screa/doorman-solver/internal/logger"
	"github.com/screa/doorman-solver/pkg/types"
)

// immediateClock resumes the search without waiting
type immediateClock struct{}

func (immediateClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// stalledClock never resumes the search
type stalledClock struct{}

func (stalledClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func newRequest(solution, candidate string, bits, burstLen int) *types.PuzzleRequest {
	return &types.PuzzleRequest{
		Request:   "/index.php",
		Target:    crypto.MD5Hex([]byte(solution)),
		Candidate: candidate,
		Bits:      bits,
		Expire:    "1339029905",
		BurstLen:  burstLen,
		SleepTime: 5 * time.Millisecond,
	}
}

func newTestSolver(t *testing.T, req *types.PuzzleRequest, progress ProgressSink, nav Navigator, clock Clock) *Solver {
	t.Helper()
	s, err := NewSolver(req, crypto.MD5Hex, logger.Discard(), progress, nav)
	if err != nil {
		t.Fatalf("NewSolver() error: %v", err)
	}
	s.SetClock(clock)
	return s
}

func TestSolve_ImmediateMatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)
	clock := NewMockClock(ctrl)

	nav.EXPECT().
		Navigate(gomock.Any(), "/index.php?key=0000&expire=1339029905").
		Return(nil)

	s := newTestSolver(t, newRequest("0000", "0000", 16, 1), progress, nav, clock)
	result, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if result.Key != "0000" || result.Attempts != 1 || result.Bursts != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestSolve_MatchWithinFirstBurstDoesNotSchedule(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)
	clock := NewMockClock(ctrl) // any After call fails the test

	nav.EXPECT().
		Navigate(gomock.Any(), "/index.php?key=0005&expire=1339029905").
		Return(nil)

	s := newTestSolver(t, newRequest("0005", "0000", 16, 10), progress, nav, clock)
	result, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if result.Key != "0005" || result.Attempts != 6 {
		t.Errorf("result = %+v", result)
	}
	if s.Attempts() != 6 {
		t.Errorf("Attempts() = %d, want 6", s.Attempts())
	}
}

func TestSolve_ExhaustsDeclaredSpace(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)
	clock := NewMockClock(ctrl)

	req := newRequest("0100", "0000", 4, 16)

	gomock.InOrder(
		progress.EXPECT().Report(100),
		clock.EXPECT().After(req.SleepTime).DoAndReturn(immediateClock{}.After),
		progress.EXPECT().Exhausted(),
	)

	s := newTestSolver(t, req, progress, nav, clock)
	result, err := s.Solve(context.Background())
	if !errors.Is(err, ErrSearchSpaceExhausted) {
		t.Fatalf("Solve() error = %v, want %v", err, ErrSearchSpaceExhausted)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func TestSolve_ProgressMonotonicUntilExhausted(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)

	var reports []int
	progress.EXPECT().
		Report(gomock.Any()).
		Do(func(percent int) { reports = append(reports, percent) }).
		Times(16)
	progress.EXPECT().Exhausted().Times(1)

	s := newTestSolver(t, newRequest("ffff", "0000", 8, 16), progress, nav, immediateClock{})
	if _, err := s.Solve(context.Background()); !errors.Is(err, ErrSearchSpaceExhausted) {
		t.Fatalf("Solve() error = %v, want %v", err, ErrSearchSpaceExhausted)
	}

	for i, p := range reports {
		if p < 0 || p > 100 {
			t.Fatalf("report %d out of range: %d", i, p)
		}
		if i > 0 && p < reports[i-1] {
			t.Fatalf("progress went backwards: %v", reports)
		}
	}
	if reports[0] != 6 || reports[len(reports)-1] != 100 {
		t.Errorf("reports = %v", reports)
	}
}

func TestSolve_MatchAfterSeveralBursts(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)
	clock := NewMockClock(ctrl)

	req := newRequest("0023", "0000", 8, 16)

	gomock.InOrder(
		progress.EXPECT().Report(6),
		clock.EXPECT().After(5*time.Millisecond).DoAndReturn(immediateClock{}.After),
		progress.EXPECT().Report(12),
		clock.EXPECT().After(5*time.Millisecond).DoAndReturn(immediateClock{}.After),
		nav.EXPECT().Navigate(gomock.Any(), "/index.php?key=0023&expire=1339029905").Return(nil),
	)

	s := newTestSolver(t, req, progress, nav, clock)
	result, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if result.Key != "0023" || result.Attempts != 36 || result.Bursts != 3 {
		t.Errorf("result = %+v", result)
	}
	if want := (types.SearchState{Candidate: "0020", TriesSoFar: 32}); s.State() != want {
		t.Errorf("State() = %+v, want %+v", s.State(), want)
	}
}

func TestSolve_KeyOnlyRedirect(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)

	req := newRequest("00ff", "00f0", 8, 32)
	req.Mode = types.RedirectKeyOnly
	req.KeyURL = "/index.php?admitkey="

	nav.EXPECT().Navigate(gomock.Any(), "/index.php?admitkey=00ff").Return(nil)

	s := newTestSolver(t, req, progress, nav, immediateClock{})
	if _, err := s.Solve(context.Background()); err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
}

func TestSolve_ContextCancelledWhileWaiting(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progress.EXPECT().Report(gomock.Any()).Do(func(int) { cancel() })

	s := newTestSolver(t, newRequest("ffff", "0000", 8, 16), progress, nav, stalledClock{})
	if _, err := s.Solve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Solve() error = %v, want %v", err, context.Canceled)
	}
}

func TestSolve_NavigateError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)

	wantErr := errors.New("connection refused")
	nav.EXPECT().Navigate(gomock.Any(), gomock.Any()).Return(wantErr)

	s := newTestSolver(t, newRequest("0000", "0000", 8, 1), progress, nav, immediateClock{})
	result, err := s.Solve(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("Solve() error = %v, want %v", err, wantErr)
	}
	if result == nil || result.Key != "0000" {
		t.Errorf("result = %+v, want key 0000", result)
	}
}

func TestNewSolver_RejectsMalformedPuzzle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *types.PuzzleRequest)
		want   error
	}{
		{"sha256 sized target", func(r *types.PuzzleRequest) { r.Target = crypto.SHA256Hex(nil) }, types.ErrInvalidTarget},
		{"uppercase candidate", func(r *types.PuzzleRequest) { r.Candidate = "00AF" }, types.ErrInvalidCandidate},
		{"zero burst", func(r *types.PuzzleRequest) { r.BurstLen = 0 }, types.ErrInvalidBurstLen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest("0000", "0000", 8, 4)
			tt.mutate(req)
			_, err := NewSolver(req, crypto.MD5Hex, logger.Discard(), nil, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewSolver() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSolve_PeriodicLogging(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	progress := NewMockProgressSink(ctrl)
	nav := NewMockNavigator(ctrl)

	progress.EXPECT().Report(gomock.Any()).AnyTimes()
	nav.EXPECT().Navigate(gomock.Any(), gomock.Any()).Return(nil)

	req := newRequest("0100", "0000", 12, 16)
	req.SleepTime = time.Millisecond

	s := newTestSolver(t, req, progress, nav, realClock{})
	s.SetLogInterval(time.Millisecond)
	result, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if result.Key != "0100" || result.Bursts != 17 {
		t.Errorf("result = %+v", result)
	}
}
