package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"rootedinspeech/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Backend    BackendConfig    `yaml:"backend"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	Booking    BookingConfig    `yaml:"booking"`
	Business   BusinessConfig   `yaml:"business"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	DevAPI     DevAPIConfig     `yaml:"devapi"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port         int             `yaml:"port"`
	SecureCookie bool            `yaml:"secure_cookie"`
	CSRFKey      string          `yaml:"csrf_key"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BackendConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	ServicesTTL     time.Duration `yaml:"services_cache_ttl"`
	GetRetries      int           `yaml:"get_retries"`
	GetRetryBackoff time.Duration `yaml:"get_retry_backoff"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

type BookingConfig struct {
	Timezone    string        `yaml:"timezone"`
	WorkflowTTL time.Duration `yaml:"workflow_ttl"`
}

// Location resolves Timezone. An empty value or "Local" means the process zone.
func (c BookingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

type BusinessConfig struct {
	Name         string `yaml:"name"`
	ContactEmail string `yaml:"contact_email"`
	ContactPhone string `yaml:"contact_phone"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// DevAPIConfig drives the reference backend used for local development.
type DevAPIConfig struct {
	Port         int              `yaml:"port"`
	DatabasePath string           `yaml:"database_path"`
	Services     []models.Service `yaml:"services"`
	Backup       BackupConfig     `yaml:"backup"`
}

type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	StoragePath   string        `yaml:"storage_path"`
	RetentionDays int           `yaml:"retention_days"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url is required")
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend base_url must be an http(s) URL: %q", c.Backend.BaseURL)
	}
	if c.Backend.GetRetries < 0 {
		return errors.New("backend get_retries must not be negative")
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}
	if c.DevAPI.Backup.RetentionDays < 0 {
		return errors.New("devapi backup retention_days must not be negative")
	}
	if c.HTTP.CSRFKey != "" && len(c.HTTP.CSRFKey) != 32 {
		return errors.New("http csrf_key must be 32 bytes")
	}

	return ValidateServices(c.DevAPI.Services)
}

// ValidateServices checks the reference backend catalog seed.
func ValidateServices(services []models.Service) error {
	ids := make(map[string]bool)
	for _, svc := range services {
		if svc.ID == "" {
			return fmt.Errorf("service '%s' has empty ID", svc.Title)
		}
		if ids[svc.ID] {
			return fmt.Errorf("duplicate service ID found: %s", svc.ID)
		}
		if svc.PriceCents < 0 {
			return fmt.Errorf("service %s has negative price", svc.ID)
		}
		if svc.DurationMinutes <= 0 {
			return fmt.Errorf("service %s must last at least one minute", svc.ID)
		}
		ids[svc.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "rooted-in-speech"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RateLimit.RPS == 0 {
		c.HTTP.RateLimit.RPS = 1
	}
	if c.HTTP.RateLimit.Burst == 0 {
		c.HTTP.RateLimit.Burst = 5
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000/api"
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.GetRetryBackoff == 0 {
		c.Backend.GetRetryBackoff = 200 * time.Millisecond
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "rooted_profile"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 30 * 24 * time.Hour
	}
	if c.Booking.WorkflowTTL == 0 {
		c.Booking.WorkflowTTL = 2 * time.Hour
	}
	if c.Business.Name == "" {
		c.Business.Name = "Rooted in Speech"
	}
	if c.Business.ContactEmail == "" {
		c.Business.ContactEmail = "hello@example.com"
	}
	if c.Business.ContactPhone == "" {
		c.Business.ContactPhone = "+1234567890"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.DevAPI.Port == 0 {
		c.DevAPI.Port = 8000
	}
	if c.DevAPI.DatabasePath == "" {
		c.DevAPI.DatabasePath = "data/devapi.db"
	}
	if c.DevAPI.Backup.Interval == 0 {
		c.DevAPI.Backup.Interval = 24 * time.Hour
	}
	if c.DevAPI.Backup.StoragePath == "" {
		c.DevAPI.Backup.StoragePath = "data/backups"
	}
}
