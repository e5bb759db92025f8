// Package kv provides a typed client for the shared key-value store the
// interview agent reads its context from. The store speaks the Redis wire
// protocol (RESP); the client implements the small command subset the
// context manager needs: GET, SET, DEL, TYPE, and cursor-based SCAN.
package kv

import (
	"errors"
	"strconv"
	"strings"
)

// Connection and transport errors. Dial distinguishes a network failure from
// a rejected credential; operations on a live handle report ErrUnavailable.
// The client never retries internally — retry policy belongs to the caller.
var (
	// ErrUnreachable means the store could not be reached on the network.
	ErrUnreachable = errors.New("store unreachable")
	// ErrAuthRejected means the store refused the supplied credential.
	ErrAuthRejected = errors.New("store authentication rejected")
	// ErrUnavailable means the transport failed mid-operation.
	ErrUnavailable = errors.New("store unavailable")
)

// ValueKind is the closed classification of a stored value, used by listing
// and filtering logic.
type ValueKind int

const (
	// Absent means the key does not exist.
	Absent ValueKind = iota
	// Scalar is a plain string or numeric value.
	Scalar
	// Vector is a value composed of many numeric components (e.g. an
	// embedding); excluded from default human-facing listings.
	Vector
	// Composite is a multi-member value (list, hash, set, sorted set).
	Composite
)

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Composite:
		return "composite"
	default:
		return "unknown"
	}
}

// Store is the transport interface the session manager operates through.
// The store is a shared multi-client resource; the interface is a stateless
// transport with no ownership of any key.
type Store interface {
	// Get returns the value for key and whether the key existed.
	// A missing key is not an error.
	Get(key string) (string, bool, error)
	// Set overwrites key unconditionally; visible to subsequent Get.
	Set(key, value string) error
	// Delete removes key, reporting whether it existed. Idempotent.
	Delete(key string) (bool, error)
	// Scan returns a lazy iterator over keys matching a glob pattern.
	// Snapshot semantics are best effort: keys written during the scan may
	// or may not be observed.
	Scan(pattern string) Scanner
	// Kind classifies the value stored at key.
	Kind(key string) (ValueKind, error)
}

// Scanner iterates lazily over keys produced by Store.Scan. Usage follows
// bufio.Scanner: call Next until it returns false, then check Err.
type Scanner interface {
	Next() bool
	Key() string
	Err() error
}

// ClassifyValue classifies a string value as Scalar or Vector. A value is a
// Vector when it reads as two or more numeric components, either as a JSON
// array ("[0.12, -0.5, ...]") or separated by whitespace/commas.
func ClassifyValue(value string) ValueKind {
	s := strings.TrimSpace(value)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) < 2 {
		return Scalar
	}
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return Scalar
		}
	}
	return Vector
}
