package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/events"
	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
)

// SessionService reads and writes the persisted session record of a browser profile
// and tells every subscriber when that record changes.
type SessionService struct {
	repo   domain.SessionRepository
	bus    *events.EventBus
	logger *zerolog.Logger
}

func NewSessionService(repo domain.SessionRepository, bus *events.EventBus, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Load returns the signed-in user of the profile, or nil. A malformed record counts as signed out.
func (s *SessionService) Load(ctx context.Context, profileID string) (*models.User, error) {
	if profileID == "" {
		return nil, nil
	}

	raw, err := s.repo.GetSession(ctx, profileID)
	if err != nil {
		s.logger.Error().Err(err).Str("profile_id", profileID).Msg("failed to get session")
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		s.logger.Warn().Err(err).Str("profile_id", profileID).Msg("ignoring malformed session record")
		return nil, nil
	}

	return &user, nil
}

func (s *SessionService) Save(ctx context.Context, profileID string, user *models.User) error {
	if profileID == "" {
		return errors.New("profile id is required")
	}
	if user == nil || user.ID == "" {
		return errors.New("session user must have an id")
	}

	record, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.repo.SetSession(ctx, profileID, record); err != nil {
		return err
	}

	s.notify(profileID, models.SessionActionSaved)
	return nil
}

func (s *SessionService) Clear(ctx context.Context, profileID string) error {
	if err := s.repo.ClearSession(ctx, profileID); err != nil {
		return err
	}

	s.notify(profileID, models.SessionActionCleared)
	return nil
}

// Subscribe calls handler for every session change, local or relayed from another instance.
func (s *SessionService) Subscribe(handler func(models.SessionChange)) func() {
	return s.bus.Subscribe(events.EventSessionChanged, func(event *events.Event) error {
		var change models.SessionChange
		if err := event.Decode(&change); err != nil {
			return err
		}
		handler(change)
		return nil
	})
}

func (s *SessionService) notify(profileID, action string) {
	change := models.SessionChange{ProfileID: profileID, Action: action}
	if err := s.bus.PublishJSON(events.EventSessionChanged, change); err != nil {
		s.logger.Error().Err(err).Str("profile_id", profileID).Msg("publish session change")
	}
}
