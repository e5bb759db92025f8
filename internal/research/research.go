// Package research wraps the two external collaborators used to create new
// context documents: the guest-research API producing unstructured
// background text, and the text-structuring LLM turning it into the
// six-section interview brief. Both are treated as opaque services behind
// narrow interfaces; the rest of the system never parses their output
// beyond checking the section headers.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Typed failures from the guest-research collaborator.
var (
	// ErrGuestNotFound means the research service has no data for the guest.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrRateLimited means the research service refused the request for quota reasons.
	ErrRateLimited = errors.New("research rate limited")
	// ErrResearchUnavailable covers transport failures and server errors.
	ErrResearchUnavailable = errors.New("research service unavailable")
)

// Researcher produces unstructured background text about a guest.
type Researcher interface {
	Lookup(ctx context.Context, guestName, focusAreas string) (string, error)
}

// Structurer turns raw background text into the six-section interview brief.
type Structurer interface {
	Structure(ctx context.Context, guestName, focusAreas, background string) (string, error)
}

// doJSON executes an HTTP request, marshalling body as JSON and decoding
// the response into out when out is non-nil. Non-2xx statuses are returned
// as *httpError for the caller to map onto typed failures.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("doJSON marshal: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("doJSON new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req) // #nosec G107 -- URL is the user-configured collaborator endpoint
	if err != nil {
		return fmt.Errorf("doJSON request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &httpError{status: resp.StatusCode, body: string(bytes.TrimSpace(snippet))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("doJSON decode: %w", err)
		}
	}
	return nil
}

// httpError is a non-2xx response, kept for status-based error mapping.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}
