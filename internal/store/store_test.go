package store

import (
	"testing"
	"time"

	"github.com/ecopickup/driversync/internal/model"
	"github.com/ecopickup/driversync/internal/urgency"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func makeTask(id string, status model.TaskStatus, ageHours float64) model.Task {
	return model.Task{
		ID:            id,
		RequestID:     "req-" + id,
		Status:        status,
		CreatedAt:     testNow.Add(-time.Duration(ageHours * float64(time.Hour))),
		DeadlineHours: 48,
	}
}

func TestReplaceAll_SwapsContents(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{
		makeTask("a", model.StatusAssigned, 1),
		makeTask("b", model.StatusPickedUp, 2),
	})

	s.ReplaceAll([]model.Task{makeTask("c", model.StatusAssigned, 3)})

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if _, ok := s.Get("a"); ok {
		t.Error("task a should have disappeared with the new snapshot")
	}
	if _, ok := s.Get("c"); !ok {
		t.Error("task c missing after replace")
	}
}

func TestReplaceAll_EmptySnapshot(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{makeTask("a", model.StatusAssigned, 1)})
	s.ReplaceAll(nil)

	if s.Len() != 0 {
		t.Errorf("len = %d, want 0", s.Len())
	}
	if got := s.Pending(); len(got) != 0 {
		t.Errorf("pending = %v, want empty", got)
	}
	if got := s.PickedUp(); len(got) != 0 {
		t.Errorf("pickedUp = %v, want empty", got)
	}
	if got := SortedByUrgency(s.Snapshot(), testNow); len(got) != 0 {
		t.Errorf("sorted = %v, want empty", got)
	}
	if got := s.CountByTier(urgency.TierUrgent, testNow); got != 0 {
		t.Errorf("countByTier = %d, want 0", got)
	}
}

func TestPatchByID(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{makeTask("a", model.StatusAssigned, 1)})

	pickedUp := model.StatusPickedUp
	at := testNow
	if !s.PatchByID("a", Patch{Status: &pickedUp, PickedUpAt: &at}) {
		t.Fatal("patch of existing task reported false")
	}

	got, _ := s.Get("a")
	if got.Status != model.StatusPickedUp {
		t.Errorf("status = %s, want picked_up", got.Status)
	}
	if got.PickedUpAt == nil || !got.PickedUpAt.Equal(at) {
		t.Errorf("pickedUpAt = %v, want %v", got.PickedUpAt, at)
	}
	// Untouched fields survive the merge.
	if got.RequestID != "req-a" || got.DeadlineHours != 48 {
		t.Errorf("unpatched fields changed: %+v", got)
	}
}

// A partial patch must never create a task: patches only ever follow a
// task the store already knows.
func TestPatchByID_AbsentIsNoop(t *testing.T) {
	s := New()
	pickedUp := model.StatusPickedUp

	if s.PatchByID("ghost", Patch{Status: &pickedUp}) {
		t.Error("patch of absent task reported true")
	}
	if s.Len() != 0 {
		t.Errorf("len = %d, patch must not create tasks", s.Len())
	}
}

func TestRemoveByID(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{
		makeTask("a", model.StatusPickedUp, 1),
		makeTask("b", model.StatusAssigned, 2),
	})

	if !s.RemoveByID("a") {
		t.Fatal("remove of existing task reported false")
	}
	if s.RemoveByID("a") {
		t.Error("second remove reported true")
	}

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID != "b" {
		t.Errorf("snapshot = %v, want only b", snap)
	}
}

func TestDerivedViews_GroupByStatus(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{
		makeTask("a", model.StatusAssigned, 1),
		makeTask("b", model.StatusInProgress, 2),
		makeTask("c", model.StatusPickedUp, 3),
	})

	pending := s.Pending()
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "b" {
		t.Errorf("pending = %v, want [a b]", pending)
	}

	picked := s.PickedUp()
	if len(picked) != 1 || picked[0].ID != "c" {
		t.Errorf("pickedUp = %v, want [c]", picked)
	}
}

func TestSortedByUrgency_MostCriticalFirst(t *testing.T) {
	tasks := []model.Task{
		makeTask("fresh", model.StatusAssigned, 1),
		makeTask("old", model.StatusAssigned, 40),
		makeTask("mid", model.StatusAssigned, 20),
	}

	got := SortedByUrgency(tasks, testNow)
	if got[0].ID != "old" || got[1].ID != "mid" || got[2].ID != "fresh" {
		t.Errorf("order = [%s %s %s], want [old mid fresh]", got[0].ID, got[1].ID, got[2].ID)
	}

	// Input order is untouched.
	if tasks[0].ID != "fresh" {
		t.Error("input slice was reordered")
	}
}

func TestCountByTier(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{
		makeTask("urgent", model.StatusAssigned, 40),  // 8h left of 48h
		makeTask("warning", model.StatusAssigned, 26), // 22h left of 48h
		makeTask("normal", model.StatusAssigned, 2),
	})

	if got := s.CountByTier(urgency.TierUrgent, testNow); got != 1 {
		t.Errorf("urgent count = %d, want 1", got)
	}
	if got := s.CountByTier(urgency.TierWarning, testNow); got != 1 {
		t.Errorf("warning count = %d, want 1", got)
	}
	if got := s.CountByTier(urgency.TierNormal, testNow); got != 1 {
		t.Errorf("normal count = %d, want 1", got)
	}
}

// Derived views hand out copies; mutating them must not reach the store.
func TestViews_AreCopies(t *testing.T) {
	s := New()
	s.ReplaceAll([]model.Task{makeTask("a", model.StatusAssigned, 1)})

	snap := s.Snapshot()
	snap[0].Status = model.StatusDelivered

	got, _ := s.Get("a")
	if got.Status != model.StatusAssigned {
		t.Error("mutating a snapshot leaked into the store")
	}
}
