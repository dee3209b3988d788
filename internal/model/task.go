package model

import (
	"math"
	"time"
)

// TaskStatus is the normalized lifecycle state of a pickup task.
type TaskStatus string

const (
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusPickedUp   TaskStatus = "picked_up"
	StatusDelivered  TaskStatus = "delivered"
)

// DefaultDeadlineHours is used when the backend does not supply a
// company-configured deadline window for a task.
const DefaultDeadlineHours = 48

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point can be used for routing. The backend
// stores ungeocoded locations as the zero point, so (0,0) is treated as
// absent rather than as a real position.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat != 0 || c.Lng != 0
}

// Task is a single driver-visible pickup assignment derived from a
// client request.
type Task struct {
	// ID is the unique identifier of this assignment. It is the only
	// key local state may be indexed by.
	ID string `json:"id"`

	// RequestID identifies the underlying pickup request. A request can
	// be reassigned, producing a new task with the same RequestID, so it
	// is not unique over time.
	RequestID string `json:"request_id"`

	// Status is the current lifecycle state (use Status* constants).
	Status TaskStatus `json:"status"`

	// CreatedAt is when the underlying request was created. The deadline
	// window is measured from this instant.
	CreatedAt time.Time `json:"created_at"`

	// DeadlineHours is the company-configured pickup window in hours.
	DeadlineHours float64 `json:"deadline_hours"`

	// Coordinates is the pickup location, nil when the client address
	// has not been geocoded.
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Descriptive payload, opaque to the sync/routing core.
	WasteType     string `json:"waste_type"`
	ClientName    string `json:"client_name"`
	ClientAddress string `json:"client_address"`
	FillLevel     int    `json:"fill_level"`

	// PickedUpAt and DeliveredAt are set by the confirmation flow on the
	// corresponding transition, never before.
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Active reports whether the task still needs driver action.
func (t Task) Active() bool {
	return t.Status != StatusDelivered
}

// CanTransitionTo reports whether moving to next is a legal forward
// transition. Transitions are monotonic: assigned/in_progress go to
// picked_up, picked_up goes to delivered, nothing moves backward.
func (t Task) CanTransitionTo(next TaskStatus) bool {
	switch next {
	case StatusPickedUp:
		return t.Status == StatusAssigned || t.Status == StatusInProgress
	case StatusDelivered:
		return t.Status == StatusPickedUp
	default:
		return false
	}
}

// Proof is the evidence attached to a pickup or delivery confirmation.
// One proof covers a whole confirmed batch, not one per item.
type Proof struct {
	PhotoURL string  `json:"photo_url,omitempty"`
	WeightKg float64 `json:"weight_kg,omitempty"`
	Note     string  `json:"note,omitempty"`
}
