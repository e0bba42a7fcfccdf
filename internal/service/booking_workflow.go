package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/events"
	"rootedinspeech/internal/metrics"
	"rootedinspeech/internal/models"

	"github.com/rs/zerolog"
)

type BookingState string

const (
	StateSelectingService  BookingState = "selecting_service"
	StateSelectingDateTime BookingState = "selecting_datetime"
	StateSubmitting        BookingState = "submitting"
	StateConfirmed         BookingState = "confirmed"
	StateFailed            BookingState = "failed"
)

// BookingView is an immutable snapshot of a workflow for rendering.
type BookingView struct {
	ID           string
	State        BookingState
	Services     []models.Service
	CatalogErr   error
	Selected     *models.Service
	Date         string
	Time         string
	Confirmation *models.Confirmation
	Err          error
}

// Submitting reports whether the submit control must be disabled.
func (v BookingView) Submitting() bool {
	return v.State == StateSubmitting
}

// BookingWorkflow is one mounted schedule view: service selection, date and time
// input, then the appointment→order sequence. At most one submission runs at a time.
type BookingWorkflow struct {
	id        string
	profileID string
	backend   domain.BookingBackend
	events    domain.EventPublisher
	loc       *time.Location
	logger    *zerolog.Logger

	mu           sync.Mutex
	catalog      *Catalog
	selected     *models.Service
	date         string
	clock        string
	state        BookingState
	confirmation *models.Confirmation
	confirmedFor string
	lastErr      error
	lastSeen     time.Time
}

func (w *BookingWorkflow) ID() string { return w.id }

func (w *BookingWorkflow) ProfileID() string { return w.profileID }

func (w *BookingWorkflow) State() BookingState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// load installs a freshly fetched catalog and preselects its first service.
func (w *BookingWorkflow) load(catalog *Catalog) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.catalog = catalog
	w.selected = nil
	if !catalog.Empty() {
		first := catalog.Services[0]
		w.selected = &first
	}
	w.state = w.editableStateLocked()
}

func (w *BookingWorkflow) View() BookingView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := BookingView{
		ID:    w.id,
		State: w.state,
		Date:  w.date,
		Time:  w.clock,
		Err:   w.lastErr,
	}
	if w.catalog != nil {
		view.Services = append([]models.Service(nil), w.catalog.Services...)
		view.CatalogErr = w.catalog.Err
	}
	if w.selected != nil {
		selected := *w.selected
		view.Selected = &selected
	}
	if w.confirmation != nil {
		conf := *w.confirmation
		view.Confirmation = &conf
	}
	return view
}

// Update applies the three form inputs at once. An unknown service id clears the
// selection and returns ErrUnknownService. Resending the inputs of a confirmed
// booking leaves the confirmation in place.
func (w *BookingWorkflow) Update(serviceID, date, clock string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitting {
		return domain.ErrSubmissionInFlight
	}

	serviceID = strings.TrimSpace(serviceID)
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if w.state == StateConfirmed && w.selected != nil &&
		w.selected.ID == serviceID && w.date == date && w.clock == clock {
		return nil
	}

	w.date = date
	w.clock = clock
	err := w.selectLocked(serviceID)
	w.resetOutcomeLocked()
	if err != nil {
		w.lastErr = err
	}
	return err
}

// SelectService changes the selected service. An empty id clears the selection.
func (w *BookingWorkflow) SelectService(serviceID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitting {
		return domain.ErrSubmissionInFlight
	}
	err := w.selectLocked(strings.TrimSpace(serviceID))
	w.resetOutcomeLocked()
	if err != nil {
		w.lastErr = err
	}
	return err
}

func (w *BookingWorkflow) SetDate(date string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitting {
		return domain.ErrSubmissionInFlight
	}
	w.date = strings.TrimSpace(date)
	w.resetOutcomeLocked()
	return nil
}

func (w *BookingWorkflow) SetTime(clock string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitting {
		return domain.ErrSubmissionInFlight
	}
	w.clock = strings.TrimSpace(clock)
	w.resetOutcomeLocked()
	return nil
}

func (w *BookingWorkflow) selectLocked(serviceID string) error {
	if serviceID == "" {
		w.selected = nil
		return nil
	}
	svc, ok := w.catalog.Find(serviceID)
	if !ok {
		w.selected = nil
		return domain.ErrUnknownService
	}
	w.selected = svc
	return nil
}

// resetOutcomeLocked leaves failed/confirmed for the matching editable state.
func (w *BookingWorkflow) resetOutcomeLocked() {
	w.confirmation = nil
	w.confirmedFor = ""
	w.lastErr = nil
	w.state = w.editableStateLocked()
}

func (w *BookingWorkflow) editableStateLocked() BookingState {
	if w.selected == nil {
		return StateSelectingService
	}
	return StateSelectingDateTime
}

func (w *BookingWorkflow) validateLocked() (time.Time, error) {
	if w.selected == nil {
		return time.Time{}, &domain.ValidationError{Field: "service", Message: "Choose a service"}
	}
	if w.date == "" {
		return time.Time{}, &domain.ValidationError{Field: "date", Message: "Choose a date"}
	}
	if w.clock == "" {
		return time.Time{}, &domain.ValidationError{Field: "time", Message: "Choose a time"}
	}
	return CombineLocal(w.date, w.clock, w.loc)
}

// Submit creates the appointment and then its order. Rejections (no session, missing
// input, submission already running) happen before any backend call and keep the
// current state. A failed step moves the workflow to failed; a checkout failure after
// the appointment was created is reported as PartialBookingFailure and is not undone.
// Submitting a confirmed workflow again for the same user returns the existing
// confirmation without calling the backend.
func (w *BookingWorkflow) Submit(ctx context.Context, user *models.User) (*models.Confirmation, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}
	if w.state == StateConfirmed && w.confirmation != nil && user != nil && user.ID == w.confirmedFor {
		conf := *w.confirmation
		w.mu.Unlock()
		return &conf, nil
	}
	if user == nil || user.ID == "" {
		w.lastErr = domain.ErrSignInRequired
		w.mu.Unlock()
		metrics.IncBooking(metrics.BookingRejected)
		return nil, domain.ErrSignInRequired
	}
	start, err := w.validateLocked()
	if err != nil {
		w.lastErr = err
		w.mu.Unlock()
		metrics.IncBooking(metrics.BookingRejected)
		return nil, err
	}
	svc := *w.selected
	w.state = StateSubmitting
	w.lastErr = nil
	w.confirmation = nil
	w.confirmedFor = ""
	w.mu.Unlock()

	startISO := FormatInstant(start)
	conf, apptID, err := w.run(ctx, user, svc, startISO)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = time.Now()

	payload := events.BookingEventPayload{
		WorkflowID:    w.id,
		ProfileID:     w.profileID,
		UserID:        user.ID,
		ServiceID:     svc.ID,
		StartTimeISO:  startISO,
		AppointmentID: apptID,
	}

	if err != nil {
		w.state = StateFailed
		w.lastErr = err
		payload.Error = err.Error()
		w.publish(events.EventBookingFailed, payload)
		w.logger.Error().Err(err).Str("workflow_id", w.id).Str("appointment_id", apptID).Msg("booking failed")
		return nil, err
	}

	w.state = StateConfirmed
	w.confirmation = conf
	w.confirmedFor = user.ID
	payload.OrderID = conf.OrderID
	payload.AmountCents = conf.AmountCents
	w.publish(events.EventBookingConfirmed, payload)
	metrics.IncBooking(metrics.BookingConfirmed)
	w.logger.Info().Str("workflow_id", w.id).Str("order_id", conf.OrderID).Msg("booking confirmed")

	result := *conf
	return &result, nil
}

// run performs the two backend steps strictly in order. The second step is only
// attempted after the first succeeded.
func (w *BookingWorkflow) run(ctx context.Context, user *models.User, svc models.Service, startISO string) (*models.Confirmation, string, error) {
	appt, err := w.backend.CreateAppointment(ctx, models.AppointmentRequest{
		UserID:          user.ID,
		ServiceID:       svc.ID,
		ServiceTitle:    svc.Title,
		StartTimeISO:    startISO,
		DurationMinutes: svc.DurationMinutes,
	})
	if err != nil {
		metrics.IncBooking(metrics.BookingFailed)
		return nil, "", fmt.Errorf("create appointment: %w", err)
	}

	conf, err := w.backend.Checkout(ctx, models.CheckoutRequest{
		UserID: user.ID,
		Items: []models.OrderItem{{
			ServiceID:    svc.ID,
			ServiceTitle: svc.Title,
			Quantity:     1,
			PriceCents:   svc.PriceCents,
		}},
	})
	if err != nil {
		metrics.IncBooking(metrics.BookingPartial)
		return nil, appt.ID, &domain.PartialBookingFailure{AppointmentID: appt.ID, Err: err}
	}

	return conf, appt.ID, nil
}

func (w *BookingWorkflow) publish(eventType string, payload events.BookingEventPayload) {
	if w.events == nil {
		return
	}
	if err := w.events.PublishJSON(eventType, payload); err != nil {
		w.logger.Error().Err(err).Str("event_type", eventType).Str("workflow_id", w.id).Msg("publish event error")
	}
}
