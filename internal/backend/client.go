package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rootedinspeech/internal/config"
	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/metrics"
	"rootedinspeech/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	endpointRegister          = "register"
	endpointLogin             = "login"
	endpointServices          = "services"
	endpointListAppointments  = "appointments_list"
	endpointCreateAppointment = "appointments_create"
	endpointListOrders        = "orders_list"
	endpointCheckout          = "checkout"

	maxErrorBody   = 64 << 10
	maxMessageSize = 300
)

var _ domain.Backend = (*Client)(nil)

// Client calls the REST/JSON backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      PolicyFromConfig(cfg),
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching of the service list.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	auth     bool
}

func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var user models.User
	err := c.send(ctx, request{
		endpoint: endpointRegister,
		method:   http.MethodPost,
		path:     "/register",
		body:     creds,
		auth:     true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var user models.User
	err := c.send(ctx, request{
		endpoint: endpointLogin,
		method:   http.MethodPost,
		path:     "/login",
		body:     models.Credentials{Email: creds.Email, Password: creds.Password},
		auth:     true,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListServices returns the catalog, from the Redis cache when one is configured.
func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	if c.readCache(ctx, models.ServicesCacheKey, &services) {
		return services, nil
	}

	err := c.send(ctx, request{
		endpoint: endpointServices,
		method:   http.MethodGet,
		path:     "/services",
	}, &services)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []models.Service{}
	}
	c.writeCache(ctx, models.ServicesCacheKey, services)
	return services, nil
}

func (c *Client) ListAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := c.send(ctx, request{
		endpoint: endpointListAppointments,
		method:   http.MethodGet,
		path:     "/appointments",
		query:    url.Values{"user_id": {userID}},
	}, &appointments)
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (c *Client) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := c.send(ctx, request{
		endpoint: endpointListOrders,
		method:   http.MethodGet,
		path:     "/orders",
		query:    url.Values{"user_id": {userID}},
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req models.AppointmentRequest) (*models.Appointment, error) {
	var appt models.Appointment
	err := c.send(ctx, request{
		endpoint: endpointCreateAppointment,
		method:   http.MethodPost,
		path:     "/appointments",
		body:     req,
	}, &appt)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *Client) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.Confirmation, error) {
	var conf models.Confirmation
	err := c.send(ctx, request{
		endpoint: endpointCheckout,
		method:   http.MethodPost,
		path:     "/checkout",
		body:     req,
	}, &conf)
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

// send performs the request. Only GETs are retried, and only on network errors and 5xx replies.
func (c *Client) send(ctx context.Context, r request, out any) error {
	attempts := 1
	if r.method == http.MethodGet && c.retry.MaxRetries > 0 {
		attempts += c.retry.MaxRetries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var retryable bool
		retryable, err = c.do(ctx, r, out)
		if err == nil || !retryable || attempt == attempts {
			return err
		}

		delay := c.retry.NextDelay(attempt)
		c.logger.Warn().Err(err).Str("endpoint", r.endpoint).Int("attempt", attempt).Dur("delay", delay).Msg("retrying backend request")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, r request, out any) (bool, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return false, &domain.TransportError{Op: r.endpoint, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return false, &domain.TransportError{Op: r.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackend(r.endpoint, 0, time.Since(start))
		return ctx.Err() == nil, &domain.TransportError{Op: r.endpoint, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveBackend(r.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errorMessage(raw)
		if r.auth && resp.StatusCode < 500 {
			return false, &domain.AuthError{Status: resp.StatusCode, Message: msg}
		}
		return resp.StatusCode >= 500, &domain.TransportError{Op: r.endpoint, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return false, &domain.TransportError{Op: r.endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return false, nil
}

// errorMessage extracts the backend-provided text of a failed reply.
func errorMessage(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}

	if strings.HasPrefix(text, "<") {
		// an HTML error page carries nothing worth showing
		return ""
	}
	if r := []rune(text); len(r) > maxMessageSize {
		text = string(r[:maxMessageSize])
	}
	return text
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
