package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/greenroom-sh/greenroom/internal/models"
)

// structurePrompt fixes the shape every brief must follow. The section
// headers here are the same ones models.ValidateSections checks for.
const structurePrompt = `You are preparing an interview brief for a podcast host.
Using the background material below, write a brief about %s with exactly
these six numbered sections, each introduced by its header on its own line:

1. %s:
2. %s:
3. %s:
4. %s:
5. %s:
6. %s:

Focus areas requested by the host: %s

Background material:
%s`

// OpenAIStructurer turns raw background text into the six-section brief
// using an OpenAI-style chat-completions endpoint.
type OpenAIStructurer struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIStructurer builds a structurer against the given endpoint.
func NewOpenAIStructurer(baseURL, apiKey, model string) *OpenAIStructurer {
	return &OpenAIStructurer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Structure produces the brief and verifies all six section headers are
// present. A response missing any header fails with ErrMalformedDocument
// and is never persisted by callers.
func (s *OpenAIStructurer) Structure(ctx context.Context, guestName, focusAreas, background string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("structurer: OPENAI_API_KEY is not set")
	}

	h := models.SectionHeaders
	prompt := fmt.Sprintf(structurePrompt, guestName,
		h[0], h[1], h[2], h[3], h[4], h[5], focusAreas, background)

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You write structured interview briefs."},
			{Role: "user", Content: prompt},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + s.apiKey}

	var out chatResponse
	err := doJSON(ctx, s.client, http.MethodPost, s.baseURL+"/chat/completions",
		headers, req, &out)
	if err != nil {
		var herr *httpError
		if errors.As(err, &herr) {
			if herr.status == http.StatusTooManyRequests {
				return "", fmt.Errorf("structurer: %w", ErrRateLimited)
			}
			if herr.status >= 500 {
				return "", fmt.Errorf("structurer: %v: %w", herr, ErrResearchUnavailable)
			}
			return "", fmt.Errorf("structurer: %v", herr)
		}
		return "", fmt.Errorf("structurer: %v: %w", err, ErrResearchUnavailable)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("structurer: response contained no choices")
	}

	brief := strings.TrimSpace(out.Choices[0].Message.Content)
	if err := models.ValidateSections(brief); err != nil {
		return "", fmt.Errorf("structurer: %w", err)
	}
	return brief + "\n", nil
}
