package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tiendc/go-deepcopy"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// SessionStore is an in-process session repository for the CLI, the MCP server
// and deployments without Postgres. Snapshots are deep-copied on the way in and out.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	stored, err := clone(*session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return domain.WrapError(domain.ErrConflict, "create session", fmt.Errorf("session %s already exists", session.ID))
	}
	s.sessions[session.ID] = stored
	return nil
}

func (s *SessionStore) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	item, exists := s.sessions[strings.TrimSpace(id)]
	s.mu.RUnlock()

	if !exists {
		return nil, domain.NotFound("get session", "session", id)
	}
	out, err := clone(item)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SessionStore) Save(_ context.Context, id string, snapshot domain.GroupedAssets, expectedVersion int64) error {
	var copied domain.GroupedAssets
	if err := deepcopy.Copy(&copied, &snapshot); err != nil {
		return fmt.Errorf("clone snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.sessions[id]
	if !exists {
		return domain.NotFound("save session", "session", id)
	}
	if item.Snapshot.Version != expectedVersion {
		return domain.WrapError(domain.ErrConflict, "save session",
			fmt.Errorf("session %s is at version %d, expected %d", id, item.Snapshot.Version, expectedVersion))
	}
	item.Snapshot = copied
	item.UpdatedAt = time.Now().UTC()
	s.sessions[id] = item
	return nil
}

// clone deep-copies the snapshot; the remaining fields are values.
func clone(session domain.Session) (domain.Session, error) {
	out := session
	out.Snapshot = domain.GroupedAssets{}
	if err := deepcopy.Copy(&out.Snapshot, &session.Snapshot); err != nil {
		return domain.Session{}, fmt.Errorf("clone session: %w", err)
	}
	return out, nil
}
