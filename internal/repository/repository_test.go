package repository_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/greenroom-sh/greenroom/internal/models"
	"github.com/greenroom-sh/greenroom/internal/repository"
)

// openTestRepo opens a fresh repository in a temp home and registers cleanup.
func openTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	r, err := repository.Open(t.TempDir())
	if err != nil {
		t.Fatalf("openTestRepo: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// docBody renders a valid six-section body mentioning guest.
func docBody(guest string) string {
	var b strings.Builder
	for i, h := range models.SectionHeaders {
		fmt.Fprintf(&b, "%d. %s:\nNotes about %s for this section.\n\n", i+1, h, guest)
	}
	return b.String()
}

func newDoc(guest, focus string) *models.ContextDocument {
	return &models.ContextDocument{
		GuestName:  guest,
		FocusAreas: focus,
		Body:       docBody(guest),
		CreatedAt:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// Write / Read
// ---------------------------------------------------------------------------

func TestWriteRead_RoundTrip(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	doc := newDoc("Jane Goodall", "primates, conservation")
	c.Assert(r.Write(doc, false), qt.IsNil)
	c.Assert(doc.Key, qt.Equals, "jane_goodall")

	got, err := r.Read("jane_goodall")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Body, qt.Equals, doc.Body) // byte-identical section content
	c.Assert(got.GuestName, qt.Equals, "Jane Goodall")
	c.Assert(got.FocusAreas, qt.Equals, "primates, conservation")
}

func TestRead_NormalizedIdentifier(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	c.Assert(r.Write(newDoc("Jane Goodall", ""), false), qt.IsNil)

	for _, spelling := range []string{"Jane Goodall", "jane goodall", "  Jane   Goodall "} {
		got, err := r.Read(spelling)
		c.Assert(err, qt.IsNil, qt.Commentf("spelling %q", spelling))
		c.Assert(got.Key, qt.Equals, "jane_goodall")
	}
}

func TestRead_NotFound(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	_, err := r.Read("nobody")
	c.Assert(err, qt.ErrorIs, models.ErrNotFound)
}

func TestWrite_AlreadyExists(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	original := newDoc("Jane Goodall", "primates")
	c.Assert(r.Write(original, false), qt.IsNil)

	c.Run("same key without overwrite fails", func(c *qt.C) {
		dup := newDoc("JANE GOODALL", "other")
		err := r.Write(dup, false)
		c.Assert(err, qt.ErrorIs, models.ErrAlreadyExists)

		// Original document untouched.
		got, rerr := r.Read("jane_goodall")
		c.Assert(rerr, qt.IsNil)
		c.Assert(got.Body, qt.Equals, original.Body)
		c.Assert(got.FocusAreas, qt.Equals, "primates")
	})

	c.Run("overwrite replaces the document", func(c *qt.C) {
		repl := newDoc("Jane Goodall", "chimpanzees")
		repl.Body = docBody("Dr. Goodall")
		c.Assert(r.Write(repl, true), qt.IsNil)

		got, err := r.Read("jane goodall")
		c.Assert(err, qt.IsNil)
		c.Assert(got.Body, qt.Equals, repl.Body)
		c.Assert(got.FocusAreas, qt.Equals, "chimpanzees")
	})
}

func TestWrite_MalformedDocument(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	doc := newDoc("Jane Goodall", "")
	doc.Body = "just some prose without sections"
	err := r.Write(doc, false)
	c.Assert(err, qt.ErrorIs, models.ErrMalformedDocument)

	// Nothing was persisted.
	_, err = r.Read("jane goodall")
	c.Assert(err, qt.ErrorIs, models.ErrNotFound)
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestList_DeterministicOrder(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	// Insert out of order; listing is sorted by key.
	c.Assert(r.Write(newDoc("Rosa Luxemburg", ""), false), qt.IsNil)
	c.Assert(r.Write(newDoc("Bernie Sanders", ""), false), qt.IsNil)
	c.Assert(r.Write(newDoc("Jane Goodall", ""), false), qt.IsNil)

	want := []string{"bernie_sanders", "jane_goodall", "rosa_luxemburg"}
	for i := 0; i < 3; i++ {
		got, err := r.List()
		c.Assert(err, qt.IsNil)
		keys := make([]string, len(got))
		for i, s := range got {
			keys[i] = s.Key
		}
		c.Assert(keys, qt.DeepEquals, want)
	}
}

func TestList_IncludesManuallyDroppedFiles(t *testing.T) {
	c := qt.New(t)
	home := t.TempDir()
	r, err := repository.Open(home)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	// A file placed in the contexts dir without going through Write.
	path := filepath.Join(home, "contexts", "ada_lovelace.txt")
	c.Assert(os.WriteFile(path, []byte(docBody("Ada")), 0o644), qt.IsNil)

	got, err := r.List()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].Key, qt.Equals, "ada_lovelace")
	c.Assert(got[0].GuestName, qt.Equals, "Ada Lovelace")
}

func TestList_Empty(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	got, err := r.List()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 0)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_HappyPath(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	c.Assert(r.Write(newDoc("Bernie Sanders", ""), false), qt.IsNil)
	c.Assert(r.Write(newDoc("Jane Goodall", ""), false), qt.IsNil)

	c.Assert(r.Delete("bernie_sanders"), qt.IsNil)

	got, err := r.List()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].Key, qt.Equals, "jane_goodall")

	_, err = r.Read("bernie_sanders")
	c.Assert(err, qt.ErrorIs, models.ErrNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	c := qt.New(t)
	r := openTestRepo(t)

	err := r.Delete("nobody")
	c.Assert(err, qt.ErrorIs, models.ErrNotFound)
}
