package backend

import (
	"log"
	"math"
	"time"

	"github.com/ecopickup/driversync/internal/model"
)

// tasksResponse is the wire shape of the full-snapshot endpoint.
type tasksResponse struct {
	Tasks []taskPayload `json:"tasks"`
}

// taskPayload is a single task as the backend sends it. Optional fields
// are pointers so absence is distinguishable from the zero value.
type taskPayload struct {
	ID            string     `json:"id"`
	RequestID     string     `json:"request_id"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DeadlineHours float64    `json:"deadline_hours"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	WasteType     string     `json:"waste_type"`
	ClientName    string     `json:"client_name"`
	ClientAddress string     `json:"client_address"`
	FillLevel     int        `json:"fill_level"`
	PickedUpAt    *time.Time `json:"picked_up_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
}

// transitionRequest is the wire shape of the per-item transition RPC.
type transitionRequest struct {
	Status model.TaskStatus `json:"status"`
	Proof  *model.Proof     `json:"proof,omitempty"`
}

// errorResponse is the backend's JSON error envelope.
type errorResponse struct {
	Message string `json:"message"`
}

// decodeTasks converts wire payloads into validated tasks. Malformed
// entries are logged and skipped rather than poisoning the snapshot:
// one bad row must not hide the driver's remaining work.
func decodeTasks(payloads []taskPayload, defaultDeadlineHours float64) []model.Task {
	tasks := make([]model.Task, 0, len(payloads))
	for _, p := range payloads {
		t, ok := decodeTask(p, defaultDeadlineHours)
		if !ok {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// decodeTask validates a single payload at the boundary, so the rest of
// the core never re-checks fields. Returns false for rows that cannot be
// repaired by defaulting.
func decodeTask(p taskPayload, defaultDeadlineHours float64) (model.Task, bool) {
	if p.ID == "" {
		log.Printf("[backend] dropping task payload without id (request %q)", p.RequestID)
		return model.Task{}, false
	}

	status := model.TaskStatus(p.Status)
	switch status {
	case model.StatusAssigned, model.StatusInProgress, model.StatusPickedUp, model.StatusDelivered:
	default:
		log.Printf("[backend] dropping task %s with unknown status %q", p.ID, p.Status)
		return model.Task{}, false
	}

	deadline := p.DeadlineHours
	if deadline <= 0 || math.IsNaN(deadline) {
		deadline = defaultDeadlineHours
	}

	var coords *model.Coordinates
	if p.Latitude != nil && p.Longitude != nil {
		c := model.Coordinates{Lat: *p.Latitude, Lng: *p.Longitude}
		if c.Valid() {
			coords = &c
		}
	}

	return model.Task{
		ID:            p.ID,
		RequestID:     p.RequestID,
		Status:        status,
		CreatedAt:     p.CreatedAt,
		DeadlineHours: deadline,
		Coordinates:   coords,
		WasteType:     p.WasteType,
		ClientName:    p.ClientName,
		ClientAddress: p.ClientAddress,
		FillLevel:     p.FillLevel,
		PickedUpAt:    p.PickedUpAt,
		DeliveredAt:   p.DeliveredAt,
	}, true
}
