// Package store holds the in-memory authoritative client-side cache of
// a driver's task list. All mutation goes through ReplaceAll, PatchByID,
// and RemoveByID; derived views return copies, so a caller never
// observes a partially applied write.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/ecopickup/driversync/internal/model"
	"github.com/ecopickup/driversync/internal/urgency"
)

// Patch is a partial task update. Nil fields are left untouched.
type Patch struct {
	Status      *model.TaskStatus
	FillLevel   *int
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
}

// TaskStore is the driver's live task list, keyed by task ID.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	order []string // snapshot order, as received from the backend
}

// New creates an empty TaskStore.
func New() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]model.Task),
	}
}

// ReplaceAll atomically swaps the entire collection for the given
// snapshot. Tasks absent from the new set disappear locally; duplicated
// IDs keep the last occurrence.
func (s *TaskStore) ReplaceAll(tasks []model.Task) {
	next := make(map[string]model.Task, len(tasks))
	order := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		if _, seen := next[t.ID]; !seen {
			order = append(order, t.ID)
		}
		next[t.ID] = t
	}

	s.mu.Lock()
	s.tasks = next
	s.order = order
	s.mu.Unlock()
}

// PatchByID merges the patch into the task with the given ID. It is a
// no-op when the task is absent: a partial patch only ever follows a
// known task and must never create one.
func (s *TaskStore) PatchByID(id string, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.FillLevel != nil {
		t.FillLevel = *p.FillLevel
	}
	if p.PickedUpAt != nil {
		t.PickedUpAt = p.PickedUpAt
	}
	if p.DeliveredAt != nil {
		t.DeliveredAt = p.DeliveredAt
	}
	s.tasks[id] = t
	return true
}

// RemoveByID deletes the task with the given ID, reporting whether it
// was present.
func (s *TaskStore) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the task with the given ID.
func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	return t, ok
}

// Len returns the number of tasks currently held.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Snapshot returns all tasks in backend snapshot order.
func (s *TaskStore) Snapshot() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out
}

// Pending returns tasks awaiting pickup (assigned or in progress).
func (s *TaskStore) Pending() []model.Task {
	return s.filter(func(t model.Task) bool {
		return t.Status == model.StatusAssigned || t.Status == model.StatusInProgress
	})
}

// PickedUp returns tasks collected but not yet delivered.
func (s *TaskStore) PickedUp() []model.Task {
	return s.filter(func(t model.Task) bool {
		return t.Status == model.StatusPickedUp
	})
}

// SortedByUrgency returns the given tasks ordered most time-critical
// first (ascending remaining time at now). This is the canonical list
// order shown to the driver. The input slice is not modified.
func SortedByUrgency(tasks []model.Task, now time.Time) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		ri := urgency.Classify(out[i].CreatedAt, out[i].DeadlineHours, now)
		rj := urgency.Classify(out[j].CreatedAt, out[j].DeadlineHours, now)
		return ri.Remaining < rj.Remaining
	})
	return out
}

// CountByTier returns how many held tasks classify into the given tier
// at now.
func (s *TaskStore) CountByTier(tier urgency.Tier, now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tasks {
		if urgency.Classify(t.CreatedAt, t.DeadlineHours, now).Tier == tier {
			count++
		}
	}
	return count
}

func (s *TaskStore) filter(keep func(model.Task) bool) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		if t := s.tasks[id]; keep(t) {
			out = append(out, t)
		}
	}
	return out
}
