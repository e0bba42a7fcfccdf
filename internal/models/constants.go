package models

const (
	AppointmentStatusScheduled = "scheduled"
	OrderStatusPending         = "pending"
)

const (
	// SessionKeyFormat is the fixed per-profile key of the persisted session record.
	SessionKeyFormat = "profile:%s:user"

	// SessionChangesChannel carries session changes between frontend instances.
	SessionChangesChannel = "session_changes"

	// ServicesCacheKey caches GET /services responses.
	ServicesCacheKey = "catalog:services"
)

const (
	SessionActionSaved   = "saved"
	SessionActionCleared = "cleared"
)

// SessionChange describes a write to one profile's session record.
type SessionChange struct {
	ProfileID  string `json:"profile_id"`
	Action     string `json:"action"`
	InstanceID string `json:"instance_id,omitempty"`
}
