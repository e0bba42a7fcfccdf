package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    []byte
	expiresAt time.Time
}

// MemorySessionRepository is the single-process session store and the Redis fallback.
type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, profileID string) ([]byte, error) {
	val, ok := r.sessions.Load(profileID)
	if !ok {
		return nil, nil
	}
	entry := val.(memoryEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.sessions.Delete(profileID)
		return nil, nil
	}
	return append([]byte(nil), entry.record...), nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, profileID string, record []byte) error {
	entry := memoryEntry{record: append([]byte(nil), record...)}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions.Store(profileID, entry)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, profileID string) error {
	r.sessions.Delete(profileID)
	return nil
}
