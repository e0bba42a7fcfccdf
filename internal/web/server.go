package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rootedinspeech/internal/config"
	"rootedinspeech/internal/logging"
	"rootedinspeech/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the web frontend renders.
type Deps struct {
	Config   *config.Config
	Sessions *service.SessionService
	Bookings *service.BookingService
	Accounts *service.AccountService
	Logger   *zerolog.Logger
}

// Server is the browser-facing HTTP frontend.
type Server struct {
	cfg      *config.Config
	sessions *service.SessionService
	bookings *service.BookingService
	accounts *service.AccountService
	views    *views
	hub      *Hub
	limiter  *rateLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(d Deps) (*Server, error) {
	if d.Config == nil || d.Sessions == nil || d.Bookings == nil || d.Accounts == nil {
		return nil, errors.New("web: missing dependency")
	}
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	v, err := newViews(d.Bookings.Location())
	if err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}

	s := &Server{
		cfg:      d.Config,
		sessions: d.Sessions,
		bookings: d.Bookings,
		accounts: d.Accounts,
		views:    v,
		hub:      NewHub(d.Sessions, logging.Component(logger, "ws")),
		limiter:  newRateLimiter(d.Config.HTTP.RateLimit),
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", d.Config.HTTP.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s, nil
}

// Routes builds the router. Unknown paths redirect home.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer, s.accessLog, s.profile)

	if key := s.cfg.HTTP.CSRFKey; key != "" {
		if !s.cfg.HTTP.SecureCookie {
			r.Use(plaintextRequests)
		}
		r.Use(csrf.Protect(
			[]byte(key),
			csrf.Secure(s.cfg.HTTP.SecureCookie),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
		))
	}

	r.Get("/", s.handleHome)
	r.Get("/about", s.handleStaticPage("about", "About"))
	r.Get("/behavior-consultation", s.handleStaticPage("behavior-consultation", "Behavior Consultation"))
	r.Get("/more-info", s.handleMoreInfo)

	r.Get("/schedule", s.handleSchedule)
	r.Get("/schedule/{workflowID}", s.handleScheduleView)
	r.Post("/schedule/{workflowID}", s.handleScheduleSubmit)

	r.Get("/account", s.handleAccount)
	r.With(s.limiter.Middleware).Post("/account/login", s.handleAccountSubmit(service.FormModeLogin))
	r.With(s.limiter.Middleware).Post("/account/register", s.handleAccountSubmit(service.FormModeRegister))
	r.Post("/logout", s.handleLogout)

	r.Get("/ws/session", s.hub.ServeWS)
	r.Get("/healthz", s.handleHealth)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	return r
}

func (s *Server) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("web frontend listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("csrf check failed")
	http.Error(w, "Your form expired. Please reload the page and try again.", http.StatusForbidden)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
