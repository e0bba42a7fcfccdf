package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
)

// FormMode is the variant of the credential form.
type FormMode string

const (
	FormModeLogin    FormMode = "login"
	FormModeRegister FormMode = "register"
)

// ParseFormMode maps a query value to a mode; anything unknown means login.
func ParseFormMode(raw string) FormMode {
	if FormMode(strings.ToLower(strings.TrimSpace(raw))) == FormModeRegister {
		return FormModeRegister
	}
	return FormModeLogin
}

func (m FormMode) Toggle() FormMode {
	if m == FormModeRegister {
		return FormModeLogin
	}
	return FormModeRegister
}

func (m FormMode) Title() string {
	if m == FormModeRegister {
		return "Create account"
	}
	return "Sign in"
}

func (m FormMode) failureMessage() string {
	if m == FormModeRegister {
		return "Registration failed"
	}
	return "Login failed"
}

// AccountHistory holds the two independently fetched lists of the signed-in view.
type AccountHistory struct {
	Appointments    []models.Appointment
	AppointmentsErr error
	Orders          []models.Order
	OrdersErr       error
}

type AccountService struct {
	backend  domain.AccountBackend
	sessions domain.SessionWriter
	logger   *zerolog.Logger
}

func NewAccountService(backend domain.AccountBackend, sessions domain.SessionWriter, logger *zerolog.Logger) *AccountService {
	return &AccountService{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// ValidateCredentials checks the fields each mode requires.
func ValidateCredentials(mode FormMode, creds models.Credentials) error {
	if mode == FormModeRegister && strings.TrimSpace(creds.Name) == "" {
		return &domain.ValidationError{Field: "name", Message: "Name is required"}
	}
	if strings.TrimSpace(creds.Email) == "" {
		return &domain.ValidationError{Field: "email", Message: "Email is required"}
	}
	if creds.Password == "" {
		return &domain.ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

// Submit signs in or registers and persists the returned session for the profile.
func (s *AccountService) Submit(ctx context.Context, profileID string, mode FormMode, creds models.Credentials) (*models.User, error) {
	if err := ValidateCredentials(mode, creds); err != nil {
		return nil, err
	}

	creds.Email = strings.TrimSpace(creds.Email)
	var (
		user *models.User
		err  error
	)
	if mode == FormModeRegister {
		creds.Name = strings.TrimSpace(creds.Name)
		user, err = s.backend.Register(ctx, creds)
	} else {
		creds.Name = ""
		user, err = s.backend.Login(ctx, creds)
	}
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) && authErr.Message == "" {
			authErr.Message = mode.failureMessage()
		}
		s.logger.Warn().Err(err).Str("profile_id", profileID).Str("mode", string(mode)).Msg("account submit failed")
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, &domain.AuthError{Message: mode.failureMessage()}
	}

	if err := s.sessions.Save(ctx, profileID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// History fetches appointments and orders concurrently; a failure of one list does
// not affect the other.
func (s *AccountService) History(ctx context.Context, user *models.User) *AccountHistory {
	history := &AccountHistory{}
	if user == nil {
		return history
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		history.Appointments, history.AppointmentsErr = s.backend.ListAppointments(ctx, user.ID)
		if history.AppointmentsErr != nil {
			s.logger.Error().Err(history.AppointmentsErr).Str("user_id", user.ID).Msg("failed to load appointments")
		}
	}()
	go func() {
		defer wg.Done()
		history.Orders, history.OrdersErr = s.backend.ListOrders(ctx, user.ID)
		if history.OrdersErr != nil {
			s.logger.Error().Err(history.OrdersErr).Str("user_id", user.ID).Msg("failed to load orders")
		}
	}()
	wg.Wait()

	return history
}

func (s *AccountService) Logout(ctx context.Context, profileID string) error {
	return s.sessions.Clear(ctx, profileID)
}
