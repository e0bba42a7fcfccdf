package web

import (
	"context"
	"errors"
	"net/http"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/models"
	"rootedinspeech/internal/service"

	"github.com/go-chi/chi/v5"
)

type scheduleData struct {
	View     service.BookingView
	SignedIn bool
}

// handleSchedule mounts a fresh booking workflow for this display of the view.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.currentUser(r)
	wf := s.bookings.Mount(ctx, ProfileID(ctx))
	s.renderSchedule(w, r, http.StatusOK, user, wf.View(), nil)
}

// handleScheduleView renders a mounted workflow. Form posts land here through a
// redirect, so reloading the page never sends the form again.
func (s *Server) handleScheduleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wf, ok := s.bookings.Workflow(chi.URLParam(r, "workflowID"), ProfileID(ctx))
	if !ok {
		http.Redirect(w, r, "/schedule", http.StatusSeeOther)
		return
	}

	view := wf.View()
	status := http.StatusOK
	if view.Err != nil {
		status = statusFor(view.Err)
	}
	s.renderSchedule(w, r, status, s.currentUser(r), view, nil)
}

func (s *Server) handleScheduleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wf, ok := s.bookings.Workflow(chi.URLParam(r, "workflowID"), ProfileID(ctx))
	if !ok {
		http.Redirect(w, r, "/schedule", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err := wf.Update(r.PostFormValue("service_id"), r.PostFormValue("date"), r.PostFormValue("time"))
	if err == nil && r.PostFormValue("intent") != "update" {
		// the appointment and order calls finish even if the browser goes away
		_, err = wf.Submit(context.WithoutCancel(ctx), s.currentUser(r))
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("workflow_id", wf.ID()).Msg("schedule submit rejected")
	}

	http.Redirect(w, r, "/schedule/"+wf.ID(), http.StatusSeeOther)
}

func (s *Server) renderSchedule(w http.ResponseWriter, r *http.Request, status int, user *models.User, view service.BookingView, err error) {
	if err == nil {
		err = view.Err
	}
	s.render(w, r, status, "schedule.html", &pageData{
		Title: "Schedule an Appointment",
		User:  user,
		Error: domain.UserMessage(err),
		Data:  scheduleData{View: view, SignedIn: user != nil},
	})
}

func statusFor(err error) int {
	var (
		vErr    *domain.ValidationError
		authErr *domain.AuthError
	)
	switch {
	case errors.Is(err, domain.ErrSignInRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownService), errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
