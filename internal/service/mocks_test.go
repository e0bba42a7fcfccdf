package service

import (
	"context"

	"rootedinspeech/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListServices(ctx context.Context) ([]models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockBackend) CreateAppointment(ctx context.Context, req models.AppointmentRequest) (*models.Appointment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockBackend) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.Confirmation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Confirmation), args.Error(1)
}

func (m *MockBackend) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockBackend) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockBackend) ListAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *MockBackend) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetSession(ctx context.Context, profileID string) ([]byte, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSessionRepository) SetSession(ctx context.Context, profileID string, record []byte) error {
	return m.Called(ctx, profileID, record).Error(0)
}

func (m *MockSessionRepository) ClearSession(ctx context.Context, profileID string) error {
	return m.Called(ctx, profileID).Error(0)
}
