package domain

import (
	"context"

	"rootedinspeech/internal/models"
)

// SessionRepository persists the raw session record of a browser profile.
// GetSession returns nil, nil when nothing is stored.
type SessionRepository interface {
	GetSession(ctx context.Context, profileID string) ([]byte, error)
	SetSession(ctx context.Context, profileID string, record []byte) error
	ClearSession(ctx context.Context, profileID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CatalogBackend is the part of the REST backend the catalog loader needs.
type CatalogBackend interface {
	ListServices(ctx context.Context) ([]models.Service, error)
}

// BookingBackend creates the two records of a booking.
type BookingBackend interface {
	CreateAppointment(ctx context.Context, req models.AppointmentRequest) (*models.Appointment, error)
	Checkout(ctx context.Context, req models.CheckoutRequest) (*models.Confirmation, error)
}

// AccountBackend covers credentials and history lookups.
type AccountBackend interface {
	Register(ctx context.Context, creds models.Credentials) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	ListAppointments(ctx context.Context, userID string) ([]models.Appointment, error)
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

// Backend is the full REST contract.
type Backend interface {
	CatalogBackend
	BookingBackend
	AccountBackend
}

// SessionReader gates views on session presence.
type SessionReader interface {
	Load(ctx context.Context, profileID string) (*models.User, error)
}

// SessionWriter persists sign-in and sign-out.
type SessionWriter interface {
	SessionReader
	Save(ctx context.Context, profileID string, user *models.User) error
	Clear(ctx context.Context, profileID string) error
}
