package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rootedinspeech/internal/models"
)

// SyncServices replaces the catalog with services, keeping their order.
func (db *DB) SyncServices(ctx context.Context, services []models.Service) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM services`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO services (id, title, price_cents, duration_minutes, sort_order) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, svc := range services {
			if _, err := stmt.ExecContext(ctx, svc.ID, svc.Title, svc.PriceCents, svc.DurationMinutes, i); err != nil {
				return fmt.Errorf("failed to insert service %s: %w", svc.ID, err)
			}
		}
		return nil
	})
}

func (db *DB) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, title, price_cents, duration_minutes FROM services ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []models.Service{}
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Title, &svc.PriceCents, &svc.DurationMinutes); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	err := db.QueryRowContext(ctx, `SELECT id, title, price_cents, duration_minutes FROM services WHERE id = ?`, id).
		Scan(&svc.ID, &svc.Title, &svc.PriceCents, &svc.DurationMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}
