package service

import (
	"rootedinspeech/internal/events"

	"github.com/rs/zerolog"
)

// WatchBookingOutcomes writes an audit line for every booking outcome. A failure
// that left an appointment without an order is logged at error level with the
// appointment id so staff can reconcile it with the backend. The returned func
// stops watching.
func WatchBookingOutcomes(bus *events.EventBus, logger *zerolog.Logger) func() {
	decode := func(event *events.Event) (events.BookingEventPayload, error) {
		var payload events.BookingEventPayload
		err := event.Decode(&payload)
		if err != nil {
			logger.Error().Err(err).Str("event", event.Type).Msg("decode booking event")
		}
		return payload, err
	}

	stopConfirmed := bus.Subscribe(events.EventBookingConfirmed, func(event *events.Event) error {
		payload, err := decode(event)
		if err != nil {
			return nil
		}
		logger.Info().
			Str("user_id", payload.UserID).
			Str("service_id", payload.ServiceID).
			Str("start_time", payload.StartTimeISO).
			Str("appointment_id", payload.AppointmentID).
			Str("order_id", payload.OrderID).
			Int64("amount_cents", payload.AmountCents).
			Msg("booking confirmed")
		return nil
	})

	stopFailed := bus.Subscribe(events.EventBookingFailed, func(event *events.Event) error {
		payload, err := decode(event)
		if err != nil {
			return nil
		}
		if payload.AppointmentID != "" {
			logger.Error().
				Str("user_id", payload.UserID).
				Str("service_id", payload.ServiceID).
				Str("start_time", payload.StartTimeISO).
				Str("appointment_id", payload.AppointmentID).
				Str("error", payload.Error).
				Msg("appointment created without order, needs reconciliation")
			return nil
		}
		logger.Warn().
			Str("user_id", payload.UserID).
			Str("service_id", payload.ServiceID).
			Str("start_time", payload.StartTimeISO).
			Str("error", payload.Error).
			Msg("booking failed")
		return nil
	})

	return func() {
		stopConfirmed()
		stopFailed()
	}
}
