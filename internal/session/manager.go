package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/logger"
	"golang.org/x/sync/singleflight"
)

const DefaultName = "editor"

// API is the part of the service the manager talks to.
type API interface {
	CurrentSession(ctx context.Context) (id string, found bool, err error)
	CreateSession(ctx context.Context, name string, makeCurrent bool) (string, error)
	SetCurrentSession(ctx context.Context, id string) (client.StatusResponse, error)
	ResetSession(ctx context.Context, id string) (client.StatusResponse, error)
	ListSessions(ctx context.Context) ([]client.SessionInfo, error)
	SessionHistory(ctx context.Context, id string) ([]client.ChatMessage, error)
}

// Session is a server-held conversation as seen by this client.
type Session struct {
	ID        string
	Name      string
	IsCurrent bool
}

// ResetResult acknowledges a cleared conversation.
type ResetResult struct {
	Status    string
	SessionID string
}

// Manager resolves and caches the id of the current session. The id is
// always obtained from the service, never invented locally.
type Manager struct {
	api         API
	name        string
	localLogger *logger.Logger

	mu       sync.Mutex
	cached   string
	resolver singleflight.Group
}

// NewManager returns a manager that names the sessions it creates.
func NewManager(api API, name string) *Manager {
	if name == "" {
		name = DefaultName
	}
	return &Manager{
		api:         api,
		name:        name,
		localLogger: logger.NewLogger("session"),
	}
}

// Cached returns the cached session id, if any.
func (m *Manager) Cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached, m.cached != ""
}

// Resolve returns the current session id. On a cache miss it asks the
// service for its current session and only creates one if none exists.
// Concurrent callers share a single discovery.
func (m *Manager) Resolve(ctx context.Context) (string, error) {
	if id, ok := m.Cached(); ok {
		return id, nil
	}

	v, err, _ := m.resolver.Do("current", func() (interface{}, error) {
		if id, ok := m.Cached(); ok {
			return id, nil
		}
		id, err := m.discoverOrCreate(ctx)
		if err != nil {
			return "", err
		}
		m.mu.Lock()
		m.cached = id
		m.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) discoverOrCreate(ctx context.Context) (string, error) {
	id, found, err := m.api.CurrentSession(ctx)
	if err != nil {
		return "", fmt.Errorf("discover current session: %w", err)
	}
	if found {
		m.localLogger.Info("Using current session", id)
		return id, nil
	}

	id, err = m.api.CreateSession(ctx, m.name, true)
	if err != nil {
		return "", err
	}
	m.localLogger.Info("Created session", id, "named", m.name)
	return id, nil
}

// Discover looks up the service's current session without ever creating
// one. A found id is cached.
func (m *Manager) Discover(ctx context.Context) (string, bool, error) {
	if id, ok := m.Cached(); ok {
		return id, true, nil
	}
	id, found, err := m.api.CurrentSession(ctx)
	if err != nil {
		return "", false, fmt.Errorf("discover current session: %w", err)
	}
	if found {
		m.mu.Lock()
		m.cached = id
		m.mu.Unlock()
	}
	return id, found, nil
}

// Invalidate forgets the cached id so the next Resolve asks the service again.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != "" {
		m.localLogger.Warn("Dropping cached session", m.cached)
	}
	m.cached = ""
}

// Reset clears the conversation history of id. It never creates a session
// and never changes which session is current. A stale id yields
// client.ErrSessionNotFound.
func (m *Manager) Reset(ctx context.Context, id string) (ResetResult, error) {
	if id == "" {
		return ResetResult{}, client.ErrSessionNotFound
	}
	resp, err := m.api.ResetSession(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			m.localLogger.Warn("Nothing to reset for session", id)
		}
		return ResetResult{}, err
	}
	m.localLogger.Info("Reset session", resp.SessionID, resp.Status)
	return ResetResult{Status: resp.Status, SessionID: resp.SessionID}, nil
}

// Switch makes id the service's current session and caches it.
func (m *Manager) Switch(ctx context.Context, id string) error {
	if _, err := m.api.SetCurrentSession(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	m.cached = id
	m.mu.Unlock()
	m.localLogger.Info("Switched to session", id)
	return nil
}

// List returns the sessions known to the service, marking the cached one current.
func (m *Manager) List(ctx context.Context) ([]Session, error) {
	infos, err := m.api.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	current, _ := m.Cached()
	sessions := make([]Session, len(infos))
	for i, info := range infos {
		sessions[i] = Session{
			ID:        info.SessionID,
			Name:      info.Name,
			IsCurrent: info.SessionID == current,
		}
	}
	return sessions, nil
}

// History returns the stored conversation of id.
func (m *Manager) History(ctx context.Context, id string) ([]client.ChatMessage, error) {
	return m.api.SessionHistory(ctx, id)
}
