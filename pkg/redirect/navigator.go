package redirect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/screa/doorman-solver/internal/logger"
)

// ErrUnexpectedStatus is returned when the server does not answer 200
var ErrUnexpectedStatus = errors.New("unexpected response status")

// PrintNavigator writes the solution URL to W, one per line
type PrintNavigator struct {
	W io.Writer
}

// NewPrintNavigator creates a navigator that prints to w
func NewPrintNavigator(w io.Writer) *PrintNavigator {
	return &PrintNavigator{W: w}
}

// Navigate prints u
func (p *PrintNavigator) Navigate(_ context.Context, u string) error {
	_, err := fmt.Fprintln(p.W, u)
	return err
}

// HTTPNavigator follows the solution URL with a GET request, the way a
// browser would after the puzzle page redirects
type HTTPNavigator struct {
	base   *url.URL
	client *http.Client
	logger *logger.Logger
	body   io.Writer
}

// NewHTTPNavigator creates a navigator resolving relative URLs against base.
// The response body is copied to body when it is not nil.
func NewHTTPNavigator(base string, client *http.Client, log *logger.Logger, body io.Writer) (*HTTPNavigator, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	return &HTTPNavigator{
		base:   u,
		client: client,
		logger: log,
		body:   body,
	}, nil
}

// Navigate issues the GET request for u
func (h *HTTPNavigator) Navigate(ctx context.Context, u string) error {
	ref, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("parse solution URL: %w", err)
	}
	target := h.base.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	dst := h.body
	if dst == nil {
		dst = io.Discard
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.logger.Debugf("GET %s: %s (%d bytes)", target, resp.Status, n)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return nil
}
