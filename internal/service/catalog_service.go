package service

import (
	"context"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
)

// Catalog is one fetched service list. Lookups only ever resolve against it.
type Catalog struct {
	Services []models.Service
	Err      error
}

func (c *Catalog) Empty() bool {
	return c == nil || len(c.Services) == 0
}

// Find returns a copy of the service with the given id, or false.
func (c *Catalog) Find(id string) (*models.Service, bool) {
	if c == nil || id == "" {
		return nil, false
	}
	for _, svc := range c.Services {
		if svc.ID == id {
			found := svc
			return &found, true
		}
	}
	return nil, false
}

type CatalogService struct {
	backend domain.CatalogBackend
	logger  *zerolog.Logger
}

func NewCatalogService(backend domain.CatalogBackend, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		backend: backend,
		logger:  logger,
	}
}

// Load fetches the service list. On failure the catalog is empty and Err is set.
func (s *CatalogService) Load(ctx context.Context) *Catalog {
	services, err := s.backend.ListServices(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load services")
		return &Catalog{Err: err}
	}

	return &Catalog{Services: append([]models.Service(nil), services...)}
}
