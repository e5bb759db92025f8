// Package models defines the core data types for the interview context system.
package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Sentinel errors shared across the repository, session, and CLI layers.
// The CLI entry point maps these onto distinct exit codes.
var (
	// ErrNotFound is returned when a context document or store key is absent.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when writing a context whose key is taken
	// and overwrite was not requested.
	ErrAlreadyExists = errors.New("already exists")
	// ErrMalformedDocument is returned when a document is missing one or more
	// of the six required sections.
	ErrMalformedDocument = errors.New("malformed document")
)

// SectionHeaders lists the six required section headers of a context
// document, in their fixed order.
var SectionHeaders = []string{
	"GUEST BACKGROUND",
	"KEY TOPICS",
	"TALKING POINTS",
	"SUGGESTED QUESTIONS",
	"POTENTIAL FOLLOW-UPS",
	"INTERVIEW STRATEGY",
}

// SectionVars maps each section header to the session variable name its
// text is published under when a context is loaded.
var SectionVars = map[string]string{
	"GUEST BACKGROUND":     "background",
	"KEY TOPICS":           "key_topics",
	"TALKING POINTS":       "talking_points",
	"SUGGESTED QUESTIONS":  "suggested_questions",
	"POTENTIAL FOLLOW-UPS": "follow_ups",
	"INTERVIEW STRATEGY":   "strategy",
}

// ContextDocument is a persisted interview brief for one guest.
type ContextDocument struct {
	Key        string // normalized guest-name key, unique in the repository
	GuestName  string // display name as entered
	FocusAreas string // comma-separated focus-area tags
	Body       string // six-section structured text, stored verbatim
	CreatedAt  time.Time
}

// ContextSummary is the listing view of a stored context document.
type ContextSummary struct {
	Key        string
	GuestName  string
	FocusAreas string
	CreatedAt  time.Time
}

// DisplayName renders a repository key back into a human-readable guest name
// ("jane_goodall" -> "Jane Goodall").
func DisplayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeGuestName converts a guest name into its repository key:
// case-folded, with every run of non-alphanumeric characters (including
// whitespace) collapsed to a single underscore. Two names that normalize
// identically refer to the same context.
func NormalizeGuestName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// ValidateSections checks that body contains all six required section
// headers. Header matching is case-insensitive and tolerates the numbered
// "1. GUEST BACKGROUND:" form the structuring step emits. Returns
// ErrMalformedDocument naming the missing headers.
func ValidateSections(body string) error {
	upper := strings.ToUpper(body)
	var missing []string
	for _, h := range SectionHeaders {
		if !strings.Contains(upper, h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing sections: %s",
			ErrMalformedDocument, strings.Join(missing, ", "))
	}
	return nil
}

// ExtractSection returns the text of one section of body: everything after
// the header's line up to the next known header, trimmed. Header matching
// follows ValidateSections (case-insensitive, numbered "1. HEADER:" form
// included). Returns "" when the header is absent.
func ExtractSection(body, header string) string {
	upper := strings.ToUpper(body)
	start := strings.Index(upper, header)
	if start < 0 {
		return ""
	}
	rest := body[start:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return ""
	}
	rest = rest[nl+1:]

	end := len(rest)
	upperRest := strings.ToUpper(rest)
	for _, h := range SectionHeaders {
		if h == header {
			continue
		}
		if i := strings.Index(upperRest, h); i >= 0 && i < end {
			end = i
		}
	}
	cut := rest[:end]
	if end < len(rest) {
		// The next header's numbering ("6. ") sits on its own line; drop it.
		if i := strings.LastIndexByte(cut, '\n'); i >= 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimSpace(cut)
}

// NewSessionID generates a 32-hex-char random session identifier from
// crypto/rand. IDs are unpredictable enough that concurrent first-use
// initializations will not collide.
func NewSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("greenroom: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
