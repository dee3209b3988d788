// Package transition coordinates batch status changes: one confirmation
// action from the driver fans out into per-task RPCs, and local state is
// patched only for the tasks the backend actually confirmed.
package transition

import (
	"context"
	"log"
	"time"

	"github.com/ecopickup/driversync/internal/history"
	"github.com/ecopickup/driversync/internal/model"
	"github.com/ecopickup/driversync/internal/store"
)

// Backend applies a single status transition remotely.
type Backend interface {
	ApplyTransition(ctx context.Context, taskID string, status model.TaskStatus, proof *model.Proof) error
}

// Result reports the per-item outcome of a batch, so callers can show
// "X of Y confirmed" instead of a binary success flag.
type Result struct {
	SucceededIDs []string
	FailedIDs    []string
}

// Attempted returns how many eligible tasks the batch tried to move.
func (r Result) Attempted() int {
	return len(r.SucceededIDs) + len(r.FailedIDs)
}

// Coordinator applies bulk transitions against the backend and keeps the
// task store consistent with whatever subset succeeded.
type Coordinator struct {
	backend Backend
	store   *store.TaskStore
	journal *history.Log // optional confirmation journal
	now     func() time.Time
}

// New creates a Coordinator. journal may be nil to skip local history.
func New(backend Backend, s *store.TaskStore, journal *history.Log) *Coordinator {
	return &Coordinator{
		backend: backend,
		store:   s,
		journal: journal,
		now:     time.Now,
	}
}

// ApplyBulk moves every eligible task in ids to target, sharing one
// proof across the whole batch.
//
// Ineligible ids (unknown tasks, or tasks whose current status does not
// allow the transition) are dropped from the attempt silently: they were
// never valid candidates, so they are not failures. Eligible items are
// processed strictly sequentially; a per-item failure is collected and
// the rest of the batch continues. Local state is patched per confirmed
// item only — picked_up patches status and timestamp, delivered removes
// the task from the active set — so the store always reflects confirmed
// remote state and a failed item keeps its prior status for retry.
func (c *Coordinator) ApplyBulk(ctx context.Context, ids []string, target model.TaskStatus, proof *model.Proof) Result {
	eligible := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		t, ok := c.store.Get(id)
		if !ok || !t.CanTransitionTo(target) {
			continue
		}
		eligible = append(eligible, t)
	}

	var res Result
	for _, t := range eligible {
		if err := c.backend.ApplyTransition(ctx, t.ID, target, proof); err != nil {
			log.Printf("[transition] %s -> %s failed: %v", t.ID, target, err)
			res.FailedIDs = append(res.FailedIDs, t.ID)
			continue
		}
		res.SucceededIDs = append(res.SucceededIDs, t.ID)

		now := c.now().UTC()
		switch target {
		case model.StatusPickedUp:
			status := target
			c.store.PatchByID(t.ID, store.Patch{Status: &status, PickedUpAt: &now})
		case model.StatusDelivered:
			c.store.RemoveByID(t.ID)
		}

		c.record(ctx, t, target, proof, now)
	}

	return res
}

// record writes a confirmed transition to the local journal. A journal
// failure never fails the transition; the backend already accepted it.
func (c *Coordinator) record(ctx context.Context, t model.Task, target model.TaskStatus, proof *model.Proof, at time.Time) {
	if c.journal == nil {
		return
	}

	entry := history.Entry{
		TaskID:     t.ID,
		RequestID:  t.RequestID,
		ClientName: t.ClientName,
		WasteType:  t.WasteType,
		Transition: string(target),
		RecordedAt: at,
	}
	if proof != nil {
		entry.WeightKg = proof.WeightKg
		entry.PhotoURL = proof.PhotoURL
	}

	if err := c.journal.Record(ctx, entry); err != nil {
		log.Printf("[transition] journal write for %s failed: %v", t.ID, err)
	}
}
