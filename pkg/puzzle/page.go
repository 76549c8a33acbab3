package puzzle

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/screa/doorman-solver/pkg/types"
)

// Errors
var (
	ErrMalformedVar = errors.New("malformed var declaration")
	ErrMissingVar   = errors.New("missing puzzle variable")
	ErrVarType      = errors.New("puzzle variable has the wrong type")
)

var puzzleScript = regexp.MustCompile(`/puzzle_static/puzzle\.js`)

// variables the page script declares and their kinds
var stringVars = []string{"request", "args", "y", "trunc_x", "expire"}
var intVars = []string{"bits", "burst_len", "sleep_time"}

// ignored declarations
var excludeVars = map[string]bool{"func": true}

// IsPuzzlePage reports whether html is a doorman puzzle page rather than the
// protected resource
func IsPuzzlePage(html string) bool {
	return puzzleScript.MatchString(html)
}

// ParsePage extracts the puzzle parameters from the page served by the
// doorman. Every line starting with "var" declares one value, either a
// single or double quoted string or an integer.
func ParsePage(html string) (*types.PuzzleRequest, error) {
	strs := make(map[string]string)
	ints := make(map[string]int)

	for n, line := range strings.Split(html, "\n") {
		line = strings.Replace(line, "=", " = ", 1)
		parts := strings.Fields(line)
		if len(parts) == 0 || parts[0] != "var" {
			continue
		}
		if len(parts) < 4 || parts[2] != "=" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedVar, n+1, strings.TrimSpace(line))
		}
		name := parts[1]
		value := strings.TrimRight(parts[3], ";")
		if excludeVars[name] {
			continue
		}

		if s, ok := unquote(value); ok {
			strs[name] = s
			continue
		}
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s = %s", ErrMalformedVar, n+1, name, value)
		}
		ints[name] = i
	}

	for _, name := range stringVars {
		if _, ok := strs[name]; !ok {
			return nil, missing(name, ints)
		}
	}
	for _, name := range intVars {
		if _, ok := ints[name]; !ok {
			return nil, missing(name, strs)
		}
	}

	return &types.PuzzleRequest{
		Request:   strs["request"],
		Args:      strs["args"],
		Target:    strs["y"],
		Candidate: strs["trunc_x"],
		Bits:      ints["bits"],
		Expire:    strs["expire"],
		BurstLen:  ints["burst_len"],
		SleepTime: time.Duration(ints["sleep_time"]) * time.Millisecond,
		Mode:      types.RedirectKeyExpire,
	}, nil
}

// missing distinguishes an absent variable from one declared with the other kind
func missing[V any](name string, other map[string]V) error {
	if _, ok := other[name]; ok {
		return fmt.Errorf("%w: %s", ErrVarType, name)
	}
	return fmt.Errorf("%w: %s", ErrMissingVar, name)
}

func unquote(v string) (string, bool) {
	if len(v) < 2 {
		return "", false
	}
	if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
		return v[1 : len(v)-1], true
	}
	return "", false
}
