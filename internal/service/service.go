// Package service implements the orchestrator that wires together
// configuration, the context repository, the session store, and the
// research collaborators behind one surface the CLI and MCP server share.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/greenroom-sh/greenroom/internal/config"
	"github.com/greenroom-sh/greenroom/internal/kv"
	"github.com/greenroom-sh/greenroom/internal/models"
	"github.com/greenroom-sh/greenroom/internal/repository"
	"github.com/greenroom-sh/greenroom/internal/research"
	"github.com/greenroom-sh/greenroom/internal/session"
)

// Service orchestrates all interview-preparation operations.
type Service struct {
	Home   string
	Config *config.Config

	repo *repository.Repository

	// lazily initialised collaborators, guarded by mu
	store      kv.Store
	storeClose func() error
	sessions   *session.Manager
	researcher research.Researcher
	structurer research.Structurer
	mu         sync.Mutex
}

// New initialises a Service rooted at home.
// If home is empty it is resolved via config.GetHome.
func New(home string) (*Service, error) {
	if home == "" {
		home = config.GetHome()
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("service.New: create home: %w", err)
	}

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}

	repo, err := repository.Open(home)
	if err != nil {
		return nil, fmt.Errorf("service.New: open repository: %w", err)
	}

	return &Service{Home: home, Config: cfg, repo: repo}, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeClose != nil {
		if err := s.storeClose(); err != nil {
			slog.Warn("closing store connection", "err", err)
		}
		s.storeClose = nil
		s.store = nil
		s.sessions = nil
	}
	return s.repo.Close()
}

// ---------------------------------------------------------------------------
// Lazy helpers
// ---------------------------------------------------------------------------

// storeClient returns the session store, dialling it on first use
// (thread-safe). Commands that never touch the store pay no connection cost.
func (s *Service) storeClient() (kv.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store, nil
	}
	st := s.Config.Store
	client, err := kv.Dial(kv.Config{
		Host:           st.Host,
		Port:           st.Port,
		Password:       st.Password,
		DB:             st.DB,
		ConnectTimeout: st.ConnectTimeout(),
		OpTimeout:      st.OpTimeout(),
	})
	if err != nil {
		return nil, err
	}
	s.store = client
	s.storeClose = client.Close
	return client, nil
}

// sessionManager returns the session manager, lazily built on the store.
func (s *Service) sessionManager() (*session.Manager, error) {
	store, err := s.storeClient()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = session.New(store, s.Config.Namespace)
	}
	return s.sessions, nil
}

// getResearcher returns the research collaborator, lazily built from config.
func (s *Service) getResearcher() research.Researcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.researcher == nil {
		s.researcher = research.NewQwelloClient(s.Config.Research.BaseURL, s.Config.Research.APIKey)
	}
	return s.researcher
}

// getStructurer returns the structuring collaborator, lazily built from config.
func (s *Service) getStructurer() research.Structurer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.structurer == nil {
		c := s.Config.Structurer
		s.structurer = research.NewOpenAIStructurer(c.BaseURL, c.APIKey, c.Model)
	}
	return s.structurer
}

// ---------------------------------------------------------------------------
// Context repository operations
// ---------------------------------------------------------------------------

// ListContexts returns all context documents in stable key order.
func (s *Service) ListContexts() ([]models.ContextSummary, error) {
	return s.repo.List()
}

// ShowContext reads a single context document by name.
func (s *Service) ShowContext(identifier string) (*models.ContextDocument, error) {
	return s.repo.Read(identifier)
}

// ResolveContext maps a name or 1-based list index onto a context document.
// "2" selects the second entry of ListContexts; anything non-numeric is
// treated as a guest name.
func (s *Service) ResolveContext(identifier string) (*models.ContextDocument, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(identifier))
	if err != nil {
		return s.repo.Read(identifier)
	}

	summaries, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	if idx < 1 || idx > len(summaries) {
		return nil, fmt.Errorf("ResolveContext: index %d out of range 1..%d: %w",
			idx, len(summaries), models.ErrNotFound)
	}
	return s.repo.Read(summaries[idx-1].Key)
}

// CreateContext researches a guest, structures the findings into the
// six-section brief, and persists it. Nothing is written when any stage
// fails, so a malformed brief never reaches the repository.
func (s *Service) CreateContext(ctx context.Context, guestName, focusAreas string, overwrite bool) (*models.ContextDocument, error) {
	if strings.TrimSpace(guestName) == "" {
		return nil, fmt.Errorf("CreateContext: guest name is required")
	}

	key := models.NormalizeGuestName(guestName)
	if key == "" {
		return nil, fmt.Errorf("CreateContext: guest name %q normalises to nothing", guestName)
	}
	if !overwrite {
		if _, err := s.repo.Read(key); err == nil {
			return nil, fmt.Errorf("CreateContext: context %q: %w", key, models.ErrAlreadyExists)
		}
	}

	slog.Info("researching guest", "guest", guestName, "focus_areas", focusAreas)
	background, err := s.getResearcher().Lookup(ctx, guestName, focusAreas)
	if err != nil {
		return nil, fmt.Errorf("CreateContext: research: %w", err)
	}

	slog.Info("structuring brief", "guest", guestName, "background_chars", len(background))
	body, err := s.getStructurer().Structure(ctx, guestName, focusAreas, background)
	if err != nil {
		return nil, fmt.Errorf("CreateContext: structure: %w", err)
	}

	doc := &models.ContextDocument{
		Key:        key,
		GuestName:  guestName,
		FocusAreas: focusAreas,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Write(doc, overwrite); err != nil {
		return nil, fmt.Errorf("CreateContext: %w", err)
	}
	return doc, nil
}

// ImportContext persists a pre-written brief, bypassing the research
// pipeline. The body still has to carry all six sections.
func (s *Service) ImportContext(guestName, focusAreas, body string, overwrite bool) (*models.ContextDocument, error) {
	doc := &models.ContextDocument{
		GuestName:  guestName,
		FocusAreas: focusAreas,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Write(doc, overwrite); err != nil {
		return nil, fmt.Errorf("ImportContext: %w", err)
	}
	return doc, nil
}

// DeleteContext removes a context document. A loaded session keeps its
// variables; deleting the file never reaches into the store.
func (s *Service) DeleteContext(identifier string) error {
	return s.repo.Delete(identifier)
}

// ---------------------------------------------------------------------------
// Session operations
// ---------------------------------------------------------------------------

// LoadContext resolves a context by name or index and loads it into the
// active session, replacing whatever was loaded before.
func (s *Service) LoadContext(identifier string) (*models.ContextDocument, error) {
	doc, err := s.ResolveContext(identifier)
	if err != nil {
		return nil, err
	}

	mgr, err := s.sessionManager()
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(doc); err != nil {
		return nil, fmt.Errorf("LoadContext: %w", err)
	}
	slog.Info("context loaded", "key", doc.Key, "guest", doc.GuestName)
	return doc, nil
}

// UnloadContext clears every variable under the active session's prefix.
func (s *Service) UnloadContext() error {
	mgr, err := s.sessionManager()
	if err != nil {
		return err
	}
	return mgr.Unload()
}

// LoadedGuest reports the guest currently loaded into the session, or
// ("", false) when the session is empty.
func (s *Service) LoadedGuest() (string, bool, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return "", false, err
	}
	key, err := mgr.Qualify(session.VarGuestName)
	if err != nil {
		return "", false, err
	}
	store, err := s.storeClient()
	if err != nil {
		return "", false, err
	}
	guest, ok, err := store.Get(key)
	if err != nil {
		return "", false, fmt.Errorf("LoadedGuest: %w", err)
	}
	return guest, ok, nil
}

// Variables lists the variables under the active session's prefix.
// Embedding-style vector values are hidden unless includeAll is set.
func (s *Service) Variables(includeAll bool) ([]session.Variable, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return nil, err
	}
	return mgr.Variables(includeAll)
}

// GetVar reads one session variable. Bare names resolve under the session
// prefix; dotted names are taken as absolute store keys.
func (s *Service) GetVar(name string) (string, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return "", err
	}
	key, err := mgr.Qualify(name)
	if err != nil {
		return "", err
	}
	store, err := s.storeClient()
	if err != nil {
		return "", err
	}
	value, ok, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("GetVar %s: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("GetVar: variable %q: %w", name, models.ErrNotFound)
	}
	return value, nil
}

// SetVar writes one session variable.
func (s *Service) SetVar(name, value string) error {
	mgr, err := s.sessionManager()
	if err != nil {
		return err
	}
	key, err := mgr.Qualify(name)
	if err != nil {
		return err
	}
	store, err := s.storeClient()
	if err != nil {
		return err
	}
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("SetVar %s: %w", key, err)
	}
	return nil
}

// DeleteVar removes one session variable, reporting whether it existed.
func (s *Service) DeleteVar(name string) (bool, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return false, err
	}
	key, err := mgr.Qualify(name)
	if err != nil {
		return false, err
	}
	store, err := s.storeClient()
	if err != nil {
		return false, err
	}
	existed, err := store.Delete(key)
	if err != nil {
		return false, fmt.Errorf("DeleteVar %s: %w", key, err)
	}
	return existed, nil
}

// SessionInfo describes the active session for status output.
type SessionInfo struct {
	ID        string
	Namespace string
	Prefix    string
	Created   bool
}

// EnsureSession guarantees a session exists and returns its coordinates.
func (s *Service) EnsureSession() (SessionInfo, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return SessionInfo{}, err
	}
	id, created, err := mgr.Ensure()
	if err != nil {
		return SessionInfo{}, err
	}
	prefix, err := mgr.Prefix()
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		ID:        id,
		Namespace: s.Config.Namespace,
		Prefix:    prefix,
		Created:   created,
	}, nil
}

// ResetSession abandons the current session id. Variables of the abandoned
// session stay in the store until ReapStaleSessions collects them.
func (s *Service) ResetSession() (bool, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return false, err
	}
	return mgr.Reset()
}

// ReapStaleSessions deletes variables left behind by abandoned sessions in
// this namespace and returns how many keys were removed.
func (s *Service) ReapStaleSessions() (int, error) {
	mgr, err := s.sessionManager()
	if err != nil {
		return 0, err
	}
	return mgr.ReapStale()
}

// PingStore dials the store if needed and verifies it answers.
func (s *Service) PingStore() error {
	_, err := s.storeClient()
	return err
}
