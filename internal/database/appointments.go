package database

import (
	"context"
	"fmt"

	"rootedinspeech/internal/models"
)

func (db *DB) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	query := `INSERT INTO appointments (id, user_id, service_id, service_title, start_time_iso, duration_minutes, status)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		appt.ID,
		appt.UserID,
		appt.ServiceID,
		appt.ServiceTitle,
		appt.StartTimeISO,
		appt.DurationMinutes,
		appt.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// ListAppointmentsByUser returns the user's appointments in creation order.
func (db *DB) ListAppointmentsByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	query := `SELECT id, user_id, service_id, service_title, start_time_iso, duration_minutes, status
              FROM appointments WHERE user_id = ? ORDER BY created_at, rowid`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []models.Appointment{}
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.UserID, &a.ServiceID, &a.ServiceTitle, &a.StartTimeISO, &a.DurationMinutes, &a.Status); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}
