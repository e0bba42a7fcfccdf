package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"rootedinspeech/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultMaxWorkflowsPerProfile = 8
	defaultMaxWorkflows           = 10000
)

// BookingService mounts booking workflows and keeps them addressable by id until
// they sit idle for longer than ttl. A mount past the per-profile or global limit
// evicts the least recently used idle workflows.
type BookingService struct {
	catalog   *CatalogService
	backend   domain.BookingBackend
	events    domain.EventPublisher
	loc       *time.Location
	ttl       time.Duration
	logger    *zerolog.Logger
	workflows sync.Map // map[string]*BookingWorkflow
	now       func() time.Time

	maxPerProfile int
	maxTotal      int
}

func NewBookingService(
	catalog *CatalogService,
	backend domain.BookingBackend,
	events domain.EventPublisher,
	loc *time.Location,
	ttl time.Duration,
	logger *zerolog.Logger,
) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &BookingService{
		catalog: catalog,
		backend: backend,
		events:  events,
		loc:     loc,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,

		maxPerProfile: defaultMaxWorkflowsPerProfile,
		maxTotal:      defaultMaxWorkflows,
	}
}

// Location is the zone booking dates and times are interpreted in.
func (s *BookingService) Location() *time.Location {
	return s.loc
}

// Mount creates a workflow for one display of the schedule view and loads the
// catalog for it exactly once.
func (s *BookingService) Mount(ctx context.Context, profileID string) *BookingWorkflow {
	s.sweep()

	w := &BookingWorkflow{
		id:        uuid.NewString(),
		profileID: profileID,
		backend:   s.backend,
		events:    s.events,
		loc:       s.loc,
		logger:    s.logger,
		state:     StateSelectingService,
		lastSeen:  s.now(),
	}
	w.load(s.catalog.Load(ctx))

	s.workflows.Store(w.id, w)
	s.evict(w)
	return w
}

// Workflow looks up a mounted workflow owned by profileID.
func (s *BookingService) Workflow(id, profileID string) (*BookingWorkflow, bool) {
	val, ok := s.workflows.Load(id)
	if !ok {
		return nil, false
	}
	w := val.(*BookingWorkflow)
	if w.profileID != profileID {
		return nil, false
	}

	w.mu.Lock()
	w.lastSeen = s.now()
	w.mu.Unlock()
	return w, true
}

func (s *BookingService) sweep() {
	cutoff := s.now().Add(-s.ttl)
	s.workflows.Range(func(key, val any) bool {
		w := val.(*BookingWorkflow)
		w.mu.Lock()
		expired := w.state != StateSubmitting && w.lastSeen.Before(cutoff)
		w.mu.Unlock()
		if expired {
			s.workflows.Delete(key)
		}
		return true
	})
}

type workflowEntry struct {
	id       string
	profile  string
	lastSeen time.Time
	idle     bool
}

// evict drops the least recently used idle workflows until the profile of keep and
// the registry as a whole are within their limits. keep and submitting workflows stay.
func (s *BookingService) evict(keep *BookingWorkflow) {
	var entries []workflowEntry
	s.workflows.Range(func(_, val any) bool {
		w := val.(*BookingWorkflow)
		w.mu.Lock()
		entries = append(entries, workflowEntry{
			id:       w.id,
			profile:  w.profileID,
			lastSeen: w.lastSeen,
			idle:     w != keep && w.state != StateSubmitting,
		})
		w.mu.Unlock()
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].lastSeen.Before(entries[j].lastSeen) })

	removed := make(map[string]bool)
	trim := func(limit int, match func(workflowEntry) bool) {
		count := 0
		for _, e := range entries {
			if !removed[e.id] && match(e) {
				count++
			}
		}
		for _, e := range entries {
			if limit <= 0 || count <= limit {
				return
			}
			if removed[e.id] || !e.idle || !match(e) {
				continue
			}
			s.workflows.Delete(e.id)
			removed[e.id] = true
			count--
		}
	}
	trim(s.maxPerProfile, func(e workflowEntry) bool { return e.profile == keep.profileID })
	trim(s.maxTotal, func(workflowEntry) bool { return true })

	if len(removed) > 0 {
		s.logger.Debug().Int("evicted", len(removed)).Str("profile_id", keep.profileID).Msg("evicted idle booking workflows")
	}
}
