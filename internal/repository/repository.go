// Package repository manages the catalog of saved interview context
// documents. Document bodies live as plain text files under
// <home>/contexts/ (one file per guest, six fixed sections); a SQLite
// catalog indexes display names, focus areas, and creation times. The files
// are the source of truth — a catalog row without a backing file is stale
// and is dropped on access.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql

	"github.com/greenroom-sh/greenroom/internal/models"
)

// Repository is a file-backed context document store with a SQLite catalog.
type Repository struct {
	dir string // directory holding <key>.txt document files
	db  *sql.DB
}

// Open initialises the repository under home, creating the contexts
// directory and catalog database as needed.
func Open(home string) (*Repository, error) {
	dir := filepath.Join(home, "contexts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repository.Open: create contexts dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(home, "catalog.db")+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("repository.Open: %w", err)
	}

	r := &Repository{dir: dir, db: db}
	if err := r.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository.Open createSchema: %w", err)
	}
	return r, nil
}

// Close closes the catalog database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Dir returns the directory holding the context document files.
func (r *Repository) Dir() string { return r.dir }

func (r *Repository) createSchema() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS contexts (
		key         TEXT PRIMARY KEY,
		guest_name  TEXT NOT NULL,
		focus_areas TEXT,
		created_at  TEXT NOT NULL
	)`)
	return err
}

// docPath returns the text file path for a normalized key.
func (r *Repository) docPath(key string) string {
	return filepath.Join(r.dir, key+".txt")
}

// ---------------------------------------------------------------------------
// Catalog operations
// ---------------------------------------------------------------------------

// List enumerates all persisted context documents, ordered by key. The
// directory listing drives the result so manually dropped-in files appear;
// catalog metadata is joined where available and stale rows are pruned.
func (r *Repository) List() ([]models.ContextSummary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("repository.List: %w", err)
	}

	present := make(map[string]bool)
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		key := strings.TrimSuffix(name, ".txt")
		present[key] = true
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := r.pruneStale(present); err != nil {
		slog.Warn("repository: prune stale catalog rows", "err", err)
	}

	summaries := make([]models.ContextSummary, 0, len(keys))
	for _, key := range keys {
		s := models.ContextSummary{Key: key, GuestName: models.DisplayName(key)}

		var guest, focus, created string
		err := r.db.QueryRow(
			`SELECT guest_name, focus_areas, created_at FROM contexts WHERE key = ?`, key,
		).Scan(&guest, &focus, &created)
		switch {
		case err == nil:
			s.GuestName = guest
			s.FocusAreas = focus
			if t, perr := time.Parse(time.RFC3339, created); perr == nil {
				s.CreatedAt = t
			}
		case errors.Is(err, sql.ErrNoRows):
			// File without catalog row (dropped in manually); fall back to mtime.
			if info, serr := os.Stat(r.docPath(key)); serr == nil {
				s.CreatedAt = info.ModTime().UTC()
			}
		default:
			return nil, fmt.Errorf("repository.List: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// pruneStale removes catalog rows whose backing file is gone.
func (r *Repository) pruneStale(present map[string]bool) error {
	rows, err := r.db.Query(`SELECT key FROM contexts`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return err
		}
		if !present[key] {
			stale = append(stale, key)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, key := range stale {
		if _, err := r.db.Exec(`DELETE FROM contexts WHERE key = ?`, key); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the context document for identifier (a guest name in any
// spelling, or an already-normalized key). The body is read verbatim from
// the document file. Returns models.ErrNotFound when absent.
func (r *Repository) Read(identifier string) (*models.ContextDocument, error) {
	key := models.NormalizeGuestName(identifier)
	body, err := os.ReadFile(r.docPath(key))
	if errors.Is(err, os.ErrNotExist) {
		// Drop any stale catalog row so listings stay consistent.
		_, _ = r.db.Exec(`DELETE FROM contexts WHERE key = ?`, key)
		return nil, fmt.Errorf("context %q: %w", key, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repository.Read: %w", err)
	}

	doc := &models.ContextDocument{
		Key:       key,
		GuestName: models.DisplayName(key),
		Body:      string(body),
	}

	var guest, focus, created string
	row := r.db.QueryRow(
		`SELECT guest_name, focus_areas, created_at FROM contexts WHERE key = ?`, key,
	)
	if err := row.Scan(&guest, &focus, &created); err == nil {
		doc.GuestName = guest
		doc.FocusAreas = focus
		if t, perr := time.Parse(time.RFC3339, created); perr == nil {
			doc.CreatedAt = t
		}
	}
	return doc, nil
}

// Write persists a context document: validates the six required sections,
// writes the body file, and upserts the catalog row. Returns
// models.ErrAlreadyExists when the key is taken and overwrite is false, and
// models.ErrMalformedDocument when sections are missing (nothing is
// persisted in either case).
func (r *Repository) Write(doc *models.ContextDocument, overwrite bool) error {
	if err := models.ValidateSections(doc.Body); err != nil {
		return err
	}

	key := doc.Key
	if key == "" {
		key = models.NormalizeGuestName(doc.GuestName)
	}
	if key == "" {
		return fmt.Errorf("repository.Write: empty guest name")
	}

	path := r.docPath(key)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("context %q: %w", key, models.ErrAlreadyExists)
		}
	}

	if err := os.WriteFile(path, []byte(doc.Body), 0o644); err != nil {
		return fmt.Errorf("repository.Write: %w", err)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	guest := doc.GuestName
	if guest == "" {
		guest = models.DisplayName(key)
	}
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO contexts (key, guest_name, focus_areas, created_at)
		 VALUES (?, ?, ?, ?)`,
		key, guest, doc.FocusAreas, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("repository.Write catalog: %w", err)
	}
	doc.Key = key
	return nil
}

// Delete removes a context document and its catalog row. Returns
// models.ErrNotFound when the document does not exist.
func (r *Repository) Delete(identifier string) error {
	key := models.NormalizeGuestName(identifier)
	err := os.Remove(r.docPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("context %q: %w", key, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if _, err := r.db.Exec(`DELETE FROM contexts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("repository.Delete catalog: %w", err)
	}
	return nil
}
