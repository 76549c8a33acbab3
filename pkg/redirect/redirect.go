// Package redirect builds the URL that hands a solved puzzle back to the
// doorman and delivers it.
//
// Two URL shapes exist. Key-expire deployments append "key=<key>&expire=<token>"
// (after any extra arguments of the original request) to the protected
// resource, picking "?" or "&" depending on whether a query string is already
// present. Key-only deployments hand out a URL fragment that already ends in
// the key parameter and the key is concatenated onto it.
package redirect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/screa/doorman-solver/pkg/types"
)

// ErrUnknownMode is returned by ParseMode for unsupported names
var ErrUnknownMode = errors.New("unknown redirect mode")

// ParseMode converts a configuration value into a RedirectMode
func ParseMode(s string) (types.RedirectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "key-expire":
		return types.RedirectKeyExpire, nil
	case "key-only":
		return types.RedirectKeyOnly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// BuildURL returns the navigation URL carrying key for req
func BuildURL(req *types.PuzzleRequest, key string) string {
	if req.Mode == types.RedirectKeyOnly {
		return req.KeyURL + key
	}

	var b strings.Builder
	b.Grow(len(req.Request) + len(req.Args) + len(key) + len(req.Expire) + 16)
	b.WriteString(req.Request)
	if req.Args != "" {
		b.WriteByte(separator(b.String()))
		b.WriteString(req.Args)
	}
	b.WriteByte(separator(b.String()))
	b.WriteString("key=")
	b.WriteString(key)
	b.WriteString("&expire=")
	b.WriteString(req.Expire)
	return b.String()
}

// HasKey reports whether u already carries a puzzle key, i.e. it is the
// result of a solved puzzle
func HasKey(u string) bool {
	return strings.Contains(u, "?key=") || strings.Contains(u, "&key=")
}

func separator(u string) byte {
	if strings.Contains(u, "?") {
		return '&'
	}
	return '?'
}
