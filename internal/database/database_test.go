package database

import (
	"context"
	"path/filepath"
	"testing"

	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, id, email string) {
	t.Helper()
	require.NoError(t, db.CreateUser(context.Background(), models.User{ID: id, Name: "Test", Email: email}, "hash"))
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.CreateUser(ctx, models.User{ID: "u1", Name: "Ann", Email: "ann@example.com"}, "hash-1")
	require.NoError(t, err)

	t.Run("LookupIsCaseInsensitive", func(t *testing.T) {
		user, hash, err := db.GetUserByEmail(ctx, " ANN@example.com ")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "Ann", user.Name)
		assert.Equal(t, "hash-1", hash)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := db.CreateUser(ctx, models.User{ID: "u2", Name: "Other", Email: "Ann@Example.com"}, "hash-2")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, _, err := db.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := db.UserExists(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.UserExists(ctx, "u9")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestServices(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	empty, err := db.ListServices(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	services := []models.Service{
		{ID: "s2", Title: "Therapy Session", PriceCents: 8500, DurationMinutes: 45},
		{ID: "s1", Title: "Initial Consult", PriceCents: 10000, DurationMinutes: 60},
	}
	require.NoError(t, db.SyncServices(ctx, services))

	got, err := db.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, services, got, "catalog order is kept")

	require.NoError(t, db.SyncServices(ctx, services[1:]))
	got, err = db.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, services[1:], got)

	svc, err := db.GetService(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), svc.PriceCents)

	_, err = db.GetService(ctx, "s2")
	assert.ErrorIs(t, err, ErrNotFound)

	err = db.SyncServices(ctx, []models.Service{{ID: "bad", Title: "Bad", DurationMinutes: 0}})
	assert.Error(t, err)
	got, err = db.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, services[1:], got, "failed sync rolls back")
}

func TestAppointments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "u1", "a@example.com")
	createTestUser(t, db, "u2", "b@example.com")

	for _, id := range []string{"a1", "a2"} {
		require.NoError(t, db.CreateAppointment(ctx, &models.Appointment{
			ID:              id,
			UserID:          "u1",
			ServiceID:       "s1",
			ServiceTitle:    "Initial Consult",
			StartTimeISO:    "2024-05-01T18:00:00.000Z",
			DurationMinutes: 60,
			Status:          models.AppointmentStatusScheduled,
		}))
	}

	got, err := db.ListAppointmentsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "a2", got[1].ID)
	assert.Equal(t, "scheduled", got[0].Status)

	other, err := db.ListAppointmentsByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	err = db.CreateAppointment(ctx, &models.Appointment{ID: "a3", UserID: "ghost", ServiceID: "s1", ServiceTitle: "x", StartTimeISO: "x", DurationMinutes: 1, Status: "scheduled"})
	assert.Error(t, err, "foreign key enforced")
}

func TestOrders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	createTestUser(t, db, "u1", "a@example.com")

	order := &models.Order{
		ID:     "order-1",
		UserID: "u1",
		Items: []models.OrderItem{
			{ServiceID: "s1", ServiceTitle: "Initial Consult", Quantity: 1, PriceCents: 10000},
			{ServiceID: "s2", ServiceTitle: "Therapy Session", Quantity: 2, PriceCents: 8500},
		},
		AmountCents: 27000,
		Status:      models.OrderStatusPending,
	}
	require.NoError(t, db.CreateOrder(ctx, order))
	require.NoError(t, db.CreateOrder(ctx, &models.Order{ID: "order-2", UserID: "u1", AmountCents: 0, Status: models.OrderStatusPending}))

	got, err := db.ListOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *order, got[0])
	assert.Empty(t, got[1].Items)

	none, err := db.ListOrdersByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, none)

	err = db.CreateOrder(ctx, &models.Order{ID: "order-1", UserID: "u1", Status: "pending"})
	assert.Error(t, err)
}
