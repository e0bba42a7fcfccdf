package models

// Service is a bookable catalog entry. It is never mutated by the frontend.
type Service struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	PriceCents      int64  `json:"price_cents" yaml:"price_cents"`
	DurationMinutes int    `json:"duration_minutes" yaml:"duration_minutes"`
}
