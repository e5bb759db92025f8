package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// QwelloClient queries the Qwello research API for background on a guest.
type QwelloClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewQwelloClient builds a researcher against the given endpoint.
func NewQwelloClient(baseURL, apiKey string) *QwelloClient {
	return &QwelloClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type qwelloRequest struct {
	GuestName  string `json:"guest_name"`
	FocusAreas string `json:"focus_areas,omitempty"`
}

type qwelloResponse struct {
	Background string `json:"background"`
}

// Lookup fetches unstructured background text for a guest.
func (q *QwelloClient) Lookup(ctx context.Context, guestName, focusAreas string) (string, error) {
	if q.apiKey == "" {
		return "", fmt.Errorf("qwello: QWELLO_API_KEY is not set")
	}

	headers := map[string]string{"Authorization": "Bearer " + q.apiKey}
	var out qwelloResponse
	err := doJSON(ctx, q.client, http.MethodPost, q.baseURL+"/research",
		headers, qwelloRequest{GuestName: guestName, FocusAreas: focusAreas}, &out)
	if err != nil {
		var herr *httpError
		if errors.As(err, &herr) {
			switch {
			case herr.status == http.StatusNotFound:
				return "", fmt.Errorf("qwello: no research for %q: %w", guestName, ErrGuestNotFound)
			case herr.status == http.StatusTooManyRequests:
				return "", fmt.Errorf("qwello: %w", ErrRateLimited)
			case herr.status >= 500:
				return "", fmt.Errorf("qwello: %v: %w", herr, ErrResearchUnavailable)
			}
			return "", fmt.Errorf("qwello: %v", herr)
		}
		return "", fmt.Errorf("qwello: %v: %w", err, ErrResearchUnavailable)
	}

	background := strings.TrimSpace(out.Background)
	if background == "" {
		return "", fmt.Errorf("qwello: empty background for %q: %w", guestName, ErrGuestNotFound)
	}
	return background, nil
}
