package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps threads for the lifetime of the process.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string][]Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[string][]Record)}
}

func (m *MemoryStorage) Append(ctx context.Context, sessionID string, records ...Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	thread := m.sessions[sessionID]
	var lastID int64
	if n := len(thread); n > 0 {
		lastID = thread[n-1].ID
	}
	for _, r := range records {
		lastID++
		r.ID = lastID
		r.SessionID = sessionID
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		thread = append(thread, r)
	}
	m.sessions[sessionID] = thread
	return nil
}

func (m *MemoryStorage) History(ctx context.Context, sessionID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	thread := m.sessions[sessionID]
	out := make([]Record, len(thread))
	copy(out, thread)
	return out, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
