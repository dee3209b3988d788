package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/ecopickup/driversync/internal/history"
	"github.com/ecopickup/driversync/tests/testutil"
)

func TestRecordAndRecent(t *testing.T) {
	l := testutil.NewTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	entries := []history.Entry{
		{TaskID: "t1", RequestID: "r1", ClientName: "Restoran Dva", WasteType: "organic", Transition: "picked_up", WeightKg: 40, RecordedAt: base},
		{TaskID: "t2", RequestID: "r2", Transition: "picked_up", RecordedAt: base.Add(time.Hour)},
		{TaskID: "t2", RequestID: "r2", Transition: "delivered", RecordedAt: base.Add(3 * time.Hour)},
	}
	for _, e := range entries {
		if err := l.Record(ctx, e); err != nil {
			t.Fatalf("recording %s: %v", e.TaskID, err)
		}
	}

	got, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	// Most recent first.
	if got[0].Transition != "delivered" || got[0].TaskID != "t2" {
		t.Errorf("first entry = %+v, want the delivery", got[0])
	}
	if got[2].ClientName != "Restoran Dva" || got[2].WeightKg != 40 {
		t.Errorf("oldest entry = %+v", got[2])
	}
	if got[0].ID == "" {
		t.Error("entry id should be generated")
	}
}

func TestRecord_RequiresTaskID(t *testing.T) {
	l := testutil.NewTestLog(t)

	if err := l.Record(context.Background(), history.Entry{Transition: "picked_up"}); err == nil {
		t.Error("expected an error for an entry without task_id")
	}
}

func TestCountSince(t *testing.T) {
	l := testutil.NewTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{base, base.Add(2 * time.Hour), base.Add(5 * time.Hour)} {
		e := history.Entry{TaskID: "t", Transition: "picked_up", RecordedAt: at}
		e.RequestID = "r"
		if i == 0 {
			e.TaskID = "t0"
		}
		if err := l.Record(ctx, e); err != nil {
			t.Fatalf("recording: %v", err)
		}
	}

	got, err := l.CountSince(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("countSince: %v", err)
	}
	if got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}
