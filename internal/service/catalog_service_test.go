package service

import (
	"context"
	"errors"
	"testing"

	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Load(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		backend := new(MockBackend)
		services := []models.Service{
			{ID: "s1", Title: "Initial Consult", PriceCents: 10000, DurationMinutes: 60},
			{ID: "s2", Title: "Follow-up", PriceCents: 5000, DurationMinutes: 30},
		}
		backend.On("ListServices", ctx).Return(services, nil).Once()

		catalog := NewCatalogService(backend, &logger).Load(ctx)
		require.NoError(t, catalog.Err)
		assert.Equal(t, services, catalog.Services)
		assert.False(t, catalog.Empty())
		backend.AssertExpectations(t)
	})

	t.Run("FailureLeavesListEmpty", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("ListServices", ctx).Return(nil, errors.New("timeout")).Once()

		catalog := NewCatalogService(backend, &logger).Load(ctx)
		assert.Error(t, catalog.Err)
		assert.True(t, catalog.Empty())
		backend.AssertNumberOfCalls(t, "ListServices", 1)
	})
}

func TestCatalog_Find(t *testing.T) {
	catalog := &Catalog{Services: []models.Service{{ID: "s1", Title: "Initial Consult"}}}

	svc, ok := catalog.Find("s1")
	require.True(t, ok)
	assert.Equal(t, "Initial Consult", svc.Title)

	// the returned value is a copy
	svc.Title = "changed"
	again, _ := catalog.Find("s1")
	assert.Equal(t, "Initial Consult", again.Title)

	_, ok = catalog.Find("s2")
	assert.False(t, ok)
	_, ok = catalog.Find("")
	assert.False(t, ok)

	var none *Catalog
	_, ok = none.Find("s1")
	assert.False(t, ok)
	assert.True(t, none.Empty())
}
