package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/screa/doorman-solver/internal/config"
	"github.com/screa/doorman-solver/internal/crypto"
	logpkg "github.com/screa/doorman-solver/internal/logger"
	"github.com/screa/doorman-solver/pkg/progress"
	"github.com/screa/doorman-solver/pkg/puzzle"
	"github.com/screa/doorman-solver/pkg/redirect"
	solverpkg "github.com/screa/doorman-solver/pkg/solver"
	"github.com/screa/doorman-solver/pkg/types"
)

var (
	cfg    = config.NewConfig()
	logger *logpkg.Logger
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "doorman-solver",
		Short: "Solves doorman proof-of-work puzzles",
		Long: `Solves the client puzzles a doorman serves in front of a protected resource.
The puzzle is searched in short bursts with a pause between them, exactly as
the puzzle page does in a browser, and the solution URL is printed or followed.

Example:
  curl -s http://localhost/index.php | doorman-solver --page - | xargs -I REQ curl -s "http://localhostREQ"`,
		Run: runSolver,
	}

	rootCmd.Flags().StringVarP(&cfg.PageFile, "page", "f", "", "Puzzle page file, - for stdin")
	rootCmd.Flags().StringVarP(&cfg.URL, "url", "u", "", "Fetch the puzzle page from this URL")
	rootCmd.Flags().StringVarP(&cfg.Server, "server", "S", "", "Server the solution URL is resolved against (default: --url)")
	rootCmd.Flags().StringVarP(&cfg.Request, "request", "r", "", "Protected resource URL (manual puzzle)")
	rootCmd.Flags().StringVarP(&cfg.Args, "args", "a", "", "Extra query arguments of the request (manual puzzle)")
	rootCmd.Flags().StringVarP(&cfg.Target, "target", "y", "", "Target digest (manual puzzle)")
	rootCmd.Flags().StringVarP(&cfg.Candidate, "candidate", "x", "", "Initial candidate, hex (manual puzzle)")
	rootCmd.Flags().IntVarP(&cfg.Bits, "bits", "b", cfg.Bits, "Puzzle difficulty in bits (manual puzzle)")
	rootCmd.Flags().StringVarP(&cfg.Expire, "expire", "e", "", "Expiry token echoed with the key (manual puzzle)")
	rootCmd.Flags().StringVarP(&cfg.KeyURL, "key-url", "k", "", "URL the key is appended to in key-only mode")
	rootCmd.Flags().IntVarP(&cfg.BurstLen, "burst-len", "B", 0, "Override the puzzle's burst length")
	rootCmd.Flags().IntVarP(&cfg.SleepTime, "sleep-time", "s", -1, "Override the pause between bursts, in milliseconds")
	rootCmd.Flags().StringVarP(&cfg.Mode, "mode", "m", cfg.Mode, "Redirect mode: key-expire or key-only")
	rootCmd.Flags().StringVarP(&cfg.Hash, "hash", "H", cfg.Hash, "Hash function: "+strings.Join(crypto.Names(), ", "))
	rootCmd.Flags().BoolVarP(&cfg.Follow, "follow", "F", false, "Request the solution URL instead of printing it")
	rootCmd.Flags().StringVarP(&cfg.StatusFile, "status-file", "P", "", "File receiving the progress percentage after every burst")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stderr)")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", cfg.LogInterval, "Logging interval in seconds (default: 5)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSolver(cmd *cobra.Command, args []string) {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging()
	logger.Printf("Starting doorman solver")
	logger.Printf("Source: %s", cfg.GetPuzzleDescription())

	// Set up signal handling for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 30 * time.Second}

	req, err := loadPuzzle(ctx, client)
	if err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
	if req == nil {
		logger.Println("No puzzle served, the resource was returned directly.")
		return
	}

	hash, err := crypto.Lookup(cfg.Hash)
	if err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}

	nav, err := newNavigator(client)
	if err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}

	logger.Printf("Puzzle: %d bits, burst %d, sleep %v, hash %s, redirect %s",
		req.Bits, req.BurstLen, req.SleepTime, cfg.Hash, req.Mode)

	sink, closeSink, err := newProgressSink()
	if err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
	defer closeSink()

	solver, err := solverpkg.NewSolver(req, hash, logger, sink, nav)
	if err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
	if cfg.Verbose {
		solver.SetLogInterval(time.Duration(cfg.LogInterval) * time.Second)
	}

	result, err := solver.Solve(ctx)
	switch {
	case err == nil:
		logger.Printf("Found key!")
		logger.Printf("Key: %s", result.Key)
		logger.Printf("Attempts: %d in %d bursts", result.Attempts, result.Bursts)
		logger.Printf("Duration: %v", result.Duration)

		// Calculate rate safely
		rate := 0.0
		if result.Duration.Seconds() > 0 {
			rate = float64(result.Attempts) / result.Duration.Seconds()
		}
		logger.Printf("Rate: %.2f hashes/sec", rate)
	case errors.Is(err, context.Canceled):
		logger.Println("\nReceived interrupt signal (Ctrl+C). Solver stopped.")
		st := solver.State()
		logger.Printf("Stopped at candidate %s after %d attempts", st.Candidate, st.TriesSoFar)
		os.Exit(130)
	case errors.Is(err, solverpkg.ErrSearchSpaceExhausted):
		logger.Printf("Error: %v", err)
		os.Exit(2)
	default:
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// loadPuzzle returns the puzzle to solve, or nil when the doorman let the
// request straight through
func loadPuzzle(ctx context.Context, client *http.Client) (*types.PuzzleRequest, error) {
	if cfg.IsManual() {
		return cfg.ManualRequest()
	}

	var page string
	if cfg.URL != "" {
		if redirect.HasKey(cfg.URL) {
			logger.Printf("Warning: %s already carries a key", cfg.URL)
		}
		p, err := puzzle.Fetch(ctx, client, cfg.URL)
		if err != nil {
			return nil, err
		}
		if !puzzle.IsPuzzlePage(p) {
			return nil, nil
		}
		page = p
	} else {
		p, err := cfg.GetPuzzlePage(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read puzzle page: %w", err)
		}
		page = p
	}

	req, err := puzzle.ParsePage(page)
	if err != nil {
		return nil, fmt.Errorf("parse puzzle page: %w", err)
	}
	cfg.ApplyOverrides(req)
	return req, nil
}

func newNavigator(client *http.Client) (solverpkg.Navigator, error) {
	if !cfg.Follow {
		return redirect.NewPrintNavigator(os.Stdout), nil
	}
	base := cfg.Server
	if base == "" {
		base = cfg.URL
	}
	return redirect.NewHTTPNavigator(base, client, logger, os.Stdout)
}

func newProgressSink() (solverpkg.ProgressSink, func(), error) {
	logSink := progress.NewLogSink(logger)
	if cfg.StatusFile == "" {
		return logSink, func() {}, nil
	}
	file, err := os.OpenFile(cfg.StatusFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("open status file: %w", err)
	}
	return progress.Tee(logSink, progress.NewWriterSink(file)), func() { file.Close() }, nil
}

func setupLogging() {
	if cfg.LogFile != "" {
		// Log to file
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logger = logpkg.NewWriter(file)
		logger.SetFlags(logpkg.LstdFlags | logpkg.Lmicroseconds)
	} else {
		// stdout carries the solution URL
		logger = logpkg.NewWriter(os.Stderr)
		logger.SetFlags(logpkg.LstdFlags)
	}
	logger.SetVerbose(cfg.Verbose)
}
