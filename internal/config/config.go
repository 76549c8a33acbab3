package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/screa/doorman-solver/internal/crypto"
	"github.com/screa/doorman-solver/pkg/redirect"
	"github.com/screa/doorman-solver/pkg/types"
)

// Errors
var (
	ErrNoPuzzleSpecified  = errors.New("must specify either --page, --url, or --target")
	ErrIncompleteManual   = errors.New("--target needs --candidate and either --request or --key-url")
	ErrNoServerSpecified  = errors.New("--follow needs --server or --url")
	ErrInvalidLogInterval = errors.New("--log-interval must be positive")
)

// DefaultBurstLen is the burst length of puzzles given on the command line
const DefaultBurstLen = 1000

// Config holds the application configuration
type Config struct {
	// where the puzzle comes from
	PageFile string // "-" reads stdin
	URL      string
	Server   string

	// manual puzzle parameters
	Request   string
	Args      string
	Target    string
	Candidate string
	Bits      int
	Expire    string
	KeyURL    string

	// overrides, zero or negative keeps the puzzle's value
	BurstLen  int
	SleepTime int // milliseconds

	Mode        string
	Hash        string
	Follow      bool
	StatusFile  string // receives one percentage per burst
	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Bits:        16,
		SleepTime:   -1,
		Mode:        "key-expire",
		Hash:        crypto.DefaultHash,
		LogInterval: 5, // Default 5 seconds
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PageFile == "" && c.URL == "" && c.Target == "" {
		return ErrNoPuzzleSpecified
	}
	if c.Target != "" && (c.Candidate == "" || (c.Request == "" && c.KeyURL == "")) {
		return ErrIncompleteManual
	}
	if c.Follow && c.Server == "" && c.URL == "" {
		return ErrNoServerSpecified
	}
	if _, err := redirect.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := crypto.Lookup(c.Hash); err != nil {
		return err
	}
	if c.Verbose && c.LogInterval <= 0 {
		return ErrInvalidLogInterval
	}
	return nil
}

// GetPuzzleDescription returns a human-readable description of the puzzle source
func (c *Config) GetPuzzleDescription() string {
	if c.Target != "" {
		return "manual puzzle: " + c.Target
	}
	if c.URL != "" {
		return "puzzle page at " + c.URL
	}
	if c.PageFile == "-" {
		return "puzzle page from stdin"
	}
	if c.PageFile != "" {
		return "puzzle page file " + c.PageFile
	}
	return "unknown"
}

// IsManual reports whether the puzzle is given on the command line
func (c *Config) IsManual() bool {
	return c.Target != ""
}

// GetPuzzlePage returns the puzzle page from the configured file or stdin
func (c *Config) GetPuzzlePage(stdin io.Reader) (string, error) {
	if c.PageFile == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(content), nil
	}
	return readPageFromFile(c.PageFile)
}

// ManualRequest builds a puzzle request from the command line parameters
func (c *Config) ManualRequest() (*types.PuzzleRequest, error) {
	if _, err := redirect.ParseMode(c.Mode); err != nil {
		return nil, err
	}
	req := &types.PuzzleRequest{
		Request:   c.Request,
		Args:      c.Args,
		Target:    strings.ToLower(strings.TrimSpace(c.Target)),
		Candidate: strings.ToLower(strings.TrimSpace(c.Candidate)),
		Bits:      c.Bits,
		Expire:    c.Expire,
		BurstLen:  DefaultBurstLen,
		Mode:      types.RedirectKeyExpire,
	}
	c.ApplyOverrides(req)
	return req, nil
}

// ApplyOverrides replaces the burst length and sleep time of req with the
// configured values and switches it to key-only redirects when asked to
func (c *Config) ApplyOverrides(req *types.PuzzleRequest) {
	if c.BurstLen > 0 {
		req.BurstLen = c.BurstLen
	}
	if c.SleepTime >= 0 {
		req.SleepTime = time.Duration(c.SleepTime) * time.Millisecond
	}
	if mode, err := redirect.ParseMode(c.Mode); err == nil && mode == types.RedirectKeyOnly {
		req.Mode = types.RedirectKeyOnly
		req.KeyURL = c.KeyURL
	}
}

// readPageFromFile reads a saved puzzle page
func readPageFromFile(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
