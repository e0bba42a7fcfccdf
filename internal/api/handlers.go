package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"rootedinspeech/internal/database"
	"rootedinspeech/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body models.Credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), s.bcryptCost)
	if err != nil {
		s.internalError(w, err)
		return
	}

	user := models.User{ID: uuid.NewString(), Name: body.Name, Email: body.Email}
	if err := s.db.CreateUser(r.Context(), user, string(hash)); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body models.Credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, hash, err := s.db.GetUserByEmail(r.Context(), body.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.internalError(w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.db.ListServices(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	appointments, err := s.db.ListAppointmentsByUser(r.Context(), userID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var body models.AppointmentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if body.UserID == "" || body.ServiceID == "" || body.StartTimeISO == "" {
		writeError(w, http.StatusBadRequest, "user_id, service_id and start_time_iso are required")
		return
	}
	if _, err := time.Parse(time.RFC3339Nano, body.StartTimeISO); err != nil {
		writeError(w, http.StatusBadRequest, "start_time_iso must be an ISO-8601 timestamp")
		return
	}

	ctx := r.Context()
	if ok := s.userExists(w, r, body.UserID); !ok {
		return
	}
	svc, err := s.db.GetService(ctx, body.ServiceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown service")
			return
		}
		s.internalError(w, err)
		return
	}

	appt := models.Appointment{
		ID:              uuid.NewString(),
		UserID:          body.UserID,
		ServiceID:       svc.ID,
		ServiceTitle:    body.ServiceTitle,
		StartTimeISO:    body.StartTimeISO,
		DurationMinutes: body.DurationMinutes,
		Status:          models.AppointmentStatusScheduled,
	}
	if appt.ServiceTitle == "" {
		appt.ServiceTitle = svc.Title
	}
	if appt.DurationMinutes <= 0 {
		appt.DurationMinutes = svc.DurationMinutes
	}

	if err := s.db.CreateAppointment(ctx, &appt); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	orders, err := s.db.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// handleCheckout creates a pending order whose amount is the sum of quantity times price.
func (s *HTTPServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var body models.CheckoutRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if body.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if len(body.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items must not be empty")
		return
	}

	var amount int64
	for _, item := range body.Items {
		if item.Quantity <= 0 || item.PriceCents < 0 {
			writeError(w, http.StatusBadRequest, "items need a positive quantity and a non-negative price")
			return
		}
		amount += int64(item.Quantity) * item.PriceCents
	}

	if ok := s.userExists(w, r, body.UserID); !ok {
		return
	}

	order := models.Order{
		ID:          uuid.NewString(),
		UserID:      body.UserID,
		Items:       body.Items,
		AmountCents: amount,
		Status:      models.OrderStatusPending,
	}
	if err := s.db.CreateOrder(r.Context(), &order); err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.Confirmation{OrderID: order.ID, AmountCents: order.AmountCents})
}

func (s *HTTPServer) userExists(w http.ResponseWriter, r *http.Request, userID string) bool {
	ok, err := s.db.UserExists(r.Context(), userID)
	if err != nil {
		s.internalError(w, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown user")
		return false
	}
	return true
}

// internalError logs the cause and answers with a generic message.
func (s *HTTPServer) internalError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "internal server error")
}
