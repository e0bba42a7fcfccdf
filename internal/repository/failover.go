package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"rootedinspeech/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository uses primary until it errors, then serves from fallback
// and probes primary again once a minute.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverSessionRepository) shouldProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > time.Minute {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, profileID string) ([]byte, error) {
	if !r.isDown.Load() {
		record, err := r.primary.GetSession(ctx, profileID)
		if err == nil {
			return record, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		record, err := r.primary.GetSession(ctx, profileID)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary session repository recovered")
			return record, nil
		}
	}

	return r.fallback.GetSession(ctx, profileID)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, profileID string, record []byte) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, profileID, record)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSession(ctx, profileID, record)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, profileID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearSession(ctx, profileID)
		if err == nil {
			// a record written during an outage may still sit in fallback
			_ = r.fallback.ClearSession(ctx, profileID)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearSession(ctx, profileID)
}
