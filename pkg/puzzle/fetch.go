package puzzle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrFetchStatus is returned when the doorman does not answer 200
var ErrFetchStatus = errors.New("unexpected status fetching puzzle")

// maxPageSize bounds how much of a response is read
const maxPageSize = 1 << 20

// Fetch downloads the page at url
func Fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrFetchStatus, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}
