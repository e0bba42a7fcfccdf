package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/events"
	"rootedinspeech/internal/models"
	"rootedinspeech/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAccountFixture() (*AccountService, *MockBackend, *SessionService) {
	logger := zerolog.Nop()
	backend := new(MockBackend)
	sessions := NewSessionService(repository.NewMemorySessionRepository(time.Hour), events.NewEventBus(), &logger)
	return NewAccountService(backend, sessions, &logger), backend, sessions
}

func TestFormMode(t *testing.T) {
	assert.Equal(t, FormModeRegister, ParseFormMode("register"))
	assert.Equal(t, FormModeRegister, ParseFormMode(" Register "))
	assert.Equal(t, FormModeLogin, ParseFormMode(""))
	assert.Equal(t, FormModeLogin, ParseFormMode("admin"))

	assert.Equal(t, FormModeRegister, FormModeLogin.Toggle())
	assert.Equal(t, FormModeLogin, FormModeRegister.Toggle())
	assert.Equal(t, "Sign in", FormModeLogin.Title())
	assert.Equal(t, "Create account", FormModeRegister.Title())
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name  string
		mode  FormMode
		creds models.Credentials
		field string
	}{
		{"LoginOK", FormModeLogin, models.Credentials{Email: "a@b.c", Password: "pw"}, ""},
		{"LoginIgnoresName", FormModeLogin, models.Credentials{Email: "a@b.c", Password: "pw"}, ""},
		{"RegisterOK", FormModeRegister, models.Credentials{Name: "Ann", Email: "a@b.c", Password: "pw"}, ""},
		{"RegisterNeedsName", FormModeRegister, models.Credentials{Email: "a@b.c", Password: "pw"}, "name"},
		{"NeedsEmail", FormModeLogin, models.Credentials{Email: "  ", Password: "pw"}, "email"},
		{"NeedsPassword", FormModeLogin, models.Credentials{Email: "a@b.c"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.mode, tt.creds)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestAccountService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("LoginPersistsSession", func(t *testing.T) {
		s, backend, sessions := newAccountFixture()
		user := &models.User{ID: "u1", Name: "Ann", Email: "ann@example.com"}
		backend.On("Login", ctx, models.Credentials{Email: "ann@example.com", Password: "pw"}).Return(user, nil).Once()

		got, err := s.Submit(ctx, "p1", FormModeLogin, models.Credentials{Name: "ignored", Email: " ann@example.com ", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, user, got)

		stored, err := sessions.Load(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, user, stored)
		backend.AssertExpectations(t)
	})

	t.Run("RegisterPersistsSession", func(t *testing.T) {
		s, backend, sessions := newAccountFixture()
		user := &models.User{ID: "u2", Name: "Bo", Email: "bo@example.com"}
		backend.On("Register", ctx, models.Credentials{Name: "Bo", Email: "bo@example.com", Password: "pw"}).Return(user, nil).Once()

		_, err := s.Submit(ctx, "p1", FormModeRegister, models.Credentials{Name: "Bo", Email: "bo@example.com", Password: "pw"})
		require.NoError(t, err)

		stored, _ := sessions.Load(ctx, "p1")
		assert.Equal(t, "u2", stored.ID)
		backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("ValidationSkipsBackend", func(t *testing.T) {
		s, backend, _ := newAccountFixture()
		_, err := s.Submit(ctx, "p1", FormModeRegister, models.Credentials{Email: "a@b.c", Password: "pw"})
		assert.Error(t, err)
		backend.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("RejectedLoginKeepsSignedOut", func(t *testing.T) {
		s, backend, sessions := newAccountFixture()
		backend.On("Login", ctx, mock.Anything).Return(nil, &domain.AuthError{Status: 401, Message: "Invalid credentials"}).Once()

		_, err := s.Submit(ctx, "p1", FormModeLogin, models.Credentials{Email: "a@b.c", Password: "bad"})
		assert.Equal(t, "Invalid credentials", domain.UserMessage(err))

		stored, _ := sessions.Load(ctx, "p1")
		assert.Nil(t, stored)
	})

	t.Run("RejectionWithoutMessage", func(t *testing.T) {
		s, backend, _ := newAccountFixture()
		backend.On("Register", ctx, mock.Anything).Return(nil, &domain.AuthError{Status: 400}).Once()

		_, err := s.Submit(ctx, "p1", FormModeRegister, models.Credentials{Name: "A", Email: "a@b.c", Password: "pw"})
		assert.Equal(t, "Registration failed", domain.UserMessage(err))
	})

	t.Run("UserWithoutID", func(t *testing.T) {
		s, backend, _ := newAccountFixture()
		backend.On("Login", ctx, mock.Anything).Return(&models.User{Name: "Ann"}, nil).Once()

		_, err := s.Submit(ctx, "p1", FormModeLogin, models.Credentials{Email: "a@b.c", Password: "pw"})
		assert.Equal(t, "Login failed", domain.UserMessage(err))
	})
}

func TestAccountService_History(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1"}

	t.Run("Both", func(t *testing.T) {
		s, backend, _ := newAccountFixture()
		backend.On("ListAppointments", ctx, "u1").Return([]models.Appointment{{ID: "a1"}}, nil).Once()
		backend.On("ListOrders", ctx, "u1").Return([]models.Order{{ID: "o1"}}, nil).Once()

		h := s.History(ctx, user)
		assert.Len(t, h.Appointments, 1)
		assert.Len(t, h.Orders, 1)
		assert.NoError(t, h.AppointmentsErr)
		assert.NoError(t, h.OrdersErr)
	})

	t.Run("OneFails", func(t *testing.T) {
		s, backend, _ := newAccountFixture()
		backend.On("ListAppointments", ctx, "u1").Return(nil, errors.New("down")).Once()
		backend.On("ListOrders", ctx, "u1").Return([]models.Order{{ID: "o1"}}, nil).Once()

		h := s.History(ctx, user)
		assert.Error(t, h.AppointmentsErr)
		assert.Empty(t, h.Appointments)
		assert.Len(t, h.Orders, 1)
	})

	t.Run("SignedOut", func(t *testing.T) {
		s, backend, _ := newAccountFixture()
		h := s.History(ctx, nil)
		assert.Empty(t, h.Orders)
		backend.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
	})
}

func TestAccountService_Logout(t *testing.T) {
	ctx := context.Background()
	s, _, sessions := newAccountFixture()
	require.NoError(t, sessions.Save(ctx, "p1", &models.User{ID: "u1"}))

	require.NoError(t, s.Logout(ctx, "p1"))
	stored, err := sessions.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}
