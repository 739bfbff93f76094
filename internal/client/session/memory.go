package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/models"
)

// MemoryStore keeps the session in process memory. The CLI falls back to it
// when the database cannot be opened, so sessions then end with the process.
type MemoryStore struct {
	mu      sync.Mutex
	session *models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, identity models.Identity, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &models.Session{Identity: identity.Clone(), ExpiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) Load(context.Context) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return models.Session{}, false
	}
	return models.Session{Identity: m.session.Identity.Clone(), ExpiresAt: m.session.ExpiresAt}, true
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
