package models

import "time"

type Appointment struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	ServiceID       string `json:"service_id"`
	ServiceTitle    string `json:"service_title"`
	StartTimeISO    string `json:"start_time_iso"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
}

// StartTime parses StartTimeISO. The zero time is returned when the value is malformed.
func (a Appointment) StartTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, a.StartTimeISO)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AppointmentRequest is the body of POST /appointments.
type AppointmentRequest struct {
	UserID          string `json:"user_id"`
	ServiceID       string `json:"service_id"`
	ServiceTitle    string `json:"service_title"`
	StartTimeISO    string `json:"start_time_iso"`
	DurationMinutes int    `json:"duration_minutes"`
}
