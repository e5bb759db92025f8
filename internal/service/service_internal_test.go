package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/greenroom-sh/greenroom/internal/kv/kvtest"
	"github.com/greenroom-sh/greenroom/internal/models"
	"github.com/greenroom-sh/greenroom/internal/research"
	"github.com/greenroom-sh/greenroom/internal/session"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func validBody(marker string) string {
	var b strings.Builder
	for i, h := range models.SectionHeaders {
		fmt.Fprintf(&b, "%d. %s:\n- %s\n\n", i+1, h, marker)
	}
	return b.String()
}

type fakeResearcher struct {
	background string
	err        error
	calls      int
}

func (f *fakeResearcher) Lookup(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.background, f.err
}

type fakeStructurer struct {
	body string
	err  error
}

func (f *fakeStructurer) Structure(_ context.Context, _, _, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.body != "" {
		return f.body, nil
	}
	return body, nil
}

// newTestService builds a Service on a temp home with an in-memory store
// and canned collaborators, so no network or real store is involved.
func newTestService(c *qt.C) (*Service, *kvtest.InMemory) {
	svc, err := New(c.TempDir())
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { svc.Close() })

	store := kvtest.NewInMemory()
	svc.store = store
	svc.researcher = &fakeResearcher{background: validBody("from research")}
	svc.structurer = &fakeStructurer{}
	return svc, store
}

// ---------------------------------------------------------------------------
// CreateContext
// ---------------------------------------------------------------------------

func TestCreateContext(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("happy path", func(c *qt.C) {
		svc, _ := newTestService(c)

		doc, err := svc.CreateContext(ctx, "Jane Goodall", "chimpanzees", false)
		c.Assert(err, qt.IsNil)
		c.Assert(doc.Key, qt.Equals, "jane_goodall")
		c.Assert(models.ValidateSections(doc.Body), qt.IsNil)

		got, err := svc.ShowContext("jane_goodall")
		c.Assert(err, qt.IsNil)
		c.Assert(got.Body, qt.Equals, doc.Body)
		c.Assert(got.FocusAreas, qt.Equals, "chimpanzees")
	})

	c.Run("duplicate guest rejected before research runs", func(c *qt.C) {
		svc, _ := newTestService(c)
		fr := svc.researcher.(*fakeResearcher)

		_, err := svc.CreateContext(ctx, "Jane Goodall", "", false)
		c.Assert(err, qt.IsNil)
		c.Assert(fr.calls, qt.Equals, 1)

		_, err = svc.CreateContext(ctx, "jane goodall", "", false)
		c.Assert(err, qt.ErrorIs, models.ErrAlreadyExists)
		c.Assert(fr.calls, qt.Equals, 1)
	})

	c.Run("overwrite replaces existing brief", func(c *qt.C) {
		svc, _ := newTestService(c)

		_, err := svc.CreateContext(ctx, "Jane Goodall", "", false)
		c.Assert(err, qt.IsNil)

		svc.structurer = &fakeStructurer{body: validBody("second draft")}
		doc, err := svc.CreateContext(ctx, "Jane Goodall", "", true)
		c.Assert(err, qt.IsNil)
		c.Assert(doc.Body, qt.Contains, "second draft")
	})

	c.Run("research failure writes nothing", func(c *qt.C) {
		svc, _ := newTestService(c)
		svc.researcher = &fakeResearcher{err: research.ErrGuestNotFound}

		_, err := svc.CreateContext(ctx, "Ghost Guest", "", false)
		c.Assert(err, qt.ErrorIs, research.ErrGuestNotFound)

		summaries, err := svc.ListContexts()
		c.Assert(err, qt.IsNil)
		c.Assert(summaries, qt.HasLen, 0)
	})

	c.Run("malformed structurer output writes nothing", func(c *qt.C) {
		svc, _ := newTestService(c)
		svc.structurer = &fakeStructurer{err: models.ErrMalformedDocument}

		_, err := svc.CreateContext(ctx, "Jane Goodall", "", false)
		c.Assert(err, qt.ErrorIs, models.ErrMalformedDocument)

		summaries, err := svc.ListContexts()
		c.Assert(err, qt.IsNil)
		c.Assert(summaries, qt.HasLen, 0)
	})

	c.Run("blank guest name", func(c *qt.C) {
		svc, _ := newTestService(c)
		_, err := svc.CreateContext(ctx, "   ", "", false)
		c.Assert(err, qt.ErrorMatches, ".*guest name is required")
	})
}

// ---------------------------------------------------------------------------
// ResolveContext
// ---------------------------------------------------------------------------

func TestResolveContext(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	svc, _ := newTestService(c)
	for _, guest := range []string{"Rosa Luxemburg", "Jane Goodall", "Bernie Sanders"} {
		_, err := svc.CreateContext(ctx, guest, "", false)
		c.Assert(err, qt.IsNil)
	}
	// list order is by key: bernie_sanders, jane_goodall, rosa_luxemburg

	c.Run("by name", func(c *qt.C) {
		doc, err := svc.ResolveContext("Jane Goodall")
		c.Assert(err, qt.IsNil)
		c.Assert(doc.Key, qt.Equals, "jane_goodall")
	})

	c.Run("by index", func(c *qt.C) {
		doc, err := svc.ResolveContext("2")
		c.Assert(err, qt.IsNil)
		c.Assert(doc.Key, qt.Equals, "jane_goodall")
	})

	c.Run("index out of range", func(c *qt.C) {
		_, err := svc.ResolveContext("4")
		c.Assert(err, qt.ErrorIs, models.ErrNotFound)
		_, err = svc.ResolveContext("0")
		c.Assert(err, qt.ErrorIs, models.ErrNotFound)
	})

	c.Run("unknown name", func(c *qt.C) {
		_, err := svc.ResolveContext("nobody")
		c.Assert(err, qt.ErrorIs, models.ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Session flow
// ---------------------------------------------------------------------------

func TestLoadUnloadFlow(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	svc, store := newTestService(c)
	_, err := svc.CreateContext(ctx, "Jane Goodall", "conservation", false)
	c.Assert(err, qt.IsNil)

	doc, err := svc.LoadContext("jane_goodall")
	c.Assert(err, qt.IsNil)
	c.Assert(doc.Key, qt.Equals, "jane_goodall")

	guest, ok, err := svc.LoadedGuest()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(guest, qt.Equals, "Jane Goodall")

	body, err := svc.GetVar(session.VarContext)
	c.Assert(err, qt.IsNil)
	c.Assert(body, qt.Equals, doc.Body)

	vars, err := svc.Variables(false)
	c.Assert(err, qt.IsNil)
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	c.Assert(names, qt.Contains, session.VarGuestName)
	c.Assert(names, qt.Contains, session.VarContext)

	c.Assert(svc.UnloadContext(), qt.IsNil)
	_, ok, err = svc.LoadedGuest()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	// The session pointer itself survives an unload.
	_, exists, err := store.Get("default." + session.CurrentSessionKey)
	c.Assert(err, qt.IsNil)
	c.Assert(exists, qt.IsTrue)
}

func TestVarOperations(t *testing.T) {
	c := qt.New(t)

	svc, _ := newTestService(c)

	c.Run("set then get", func(c *qt.C) {
		c.Assert(svc.SetVar("episode_notes", "check audio levels"), qt.IsNil)
		got, err := svc.GetVar("episode_notes")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, "check audio levels")
	})

	c.Run("get missing", func(c *qt.C) {
		_, err := svc.GetVar("never_set")
		c.Assert(err, qt.ErrorIs, models.ErrNotFound)
	})

	c.Run("dotted names are absolute", func(c *qt.C) {
		c.Assert(svc.SetVar("robot.pose", "upright"), qt.IsNil)
		got, err := svc.GetVar("robot.pose")
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, "upright")
	})

	c.Run("delete reports existence", func(c *qt.C) {
		c.Assert(svc.SetVar("scratch", "x"), qt.IsNil)
		existed, err := svc.DeleteVar("scratch")
		c.Assert(err, qt.IsNil)
		c.Assert(existed, qt.IsTrue)

		existed, err = svc.DeleteVar("scratch")
		c.Assert(err, qt.IsNil)
		c.Assert(existed, qt.IsFalse)
	})
}

func TestSessionLifecycle(t *testing.T) {
	c := qt.New(t)

	svc, store := newTestService(c)

	info, err := svc.EnsureSession()
	c.Assert(err, qt.IsNil)
	c.Assert(info.Created, qt.IsTrue)
	c.Assert(info.ID, qt.Matches, "[0-9a-f]{32}")
	c.Assert(info.Prefix, qt.Equals, "default."+info.ID+".")

	again, err := svc.EnsureSession()
	c.Assert(err, qt.IsNil)
	c.Assert(again.Created, qt.IsFalse)
	c.Assert(again.ID, qt.Equals, info.ID)

	c.Assert(svc.SetVar("leftover", "v"), qt.IsNil)

	existed, err := svc.ResetSession()
	c.Assert(err, qt.IsNil)
	c.Assert(existed, qt.IsTrue)

	fresh, err := svc.EnsureSession()
	c.Assert(err, qt.IsNil)
	c.Assert(fresh.ID, qt.Not(qt.Equals), info.ID)

	// The old session's variable is now stale and reapable.
	reaped, err := svc.ReapStaleSessions()
	c.Assert(err, qt.IsNil)
	c.Assert(reaped, qt.Equals, 1)

	_, ok, err := store.Get(info.Prefix + "leftover")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

// ---------------------------------------------------------------------------
// ImportContext
// ---------------------------------------------------------------------------

func TestImportContext(t *testing.T) {
	c := qt.New(t)

	svc, _ := newTestService(c)

	doc, err := svc.ImportContext("Ada Lovelace", "computing history", validBody("hand written"), false)
	c.Assert(err, qt.IsNil)
	c.Assert(doc.Key, qt.Equals, "ada_lovelace")

	_, err = svc.ImportContext("Ada Lovelace", "", "no sections here", true)
	c.Assert(err, qt.ErrorIs, models.ErrMalformedDocument)
}
