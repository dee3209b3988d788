package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one confirmed transition in the journal.
type Entry struct {
	ID         string    `db:"id"`
	TaskID     string    `db:"task_id"`
	RequestID  string    `db:"request_id"`
	ClientName string    `db:"client_name"`
	WasteType  string    `db:"waste_type"`
	Transition string    `db:"transition"`
	WeightKg   float64   `db:"weight_kg"`
	PhotoURL   string    `db:"photo_url"`
	RecordedAt time.Time `db:"recorded_at"`
}

// Record inserts a confirmed transition. Generates a UUID if ID is empty
// and stamps RecordedAt when unset.
func (l *Log) Record(ctx context.Context, e Entry) error {
	if e.TaskID == "" {
		return fmt.Errorf("entry task_id must not be empty")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO transitions (
			id, task_id, request_id, client_name, waste_type,
			transition, weight_kg, photo_url, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.RequestID, e.ClientName, e.WasteType,
		e.Transition, e.WeightKg, e.PhotoURL, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("recording transition for task %s: %w", e.TaskID, err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := l.db.SelectContext(ctx, &entries, `
		SELECT id, task_id, request_id, client_name, waste_type,
			transition, weight_kg, photo_url, recorded_at
		FROM transitions
		ORDER BY recorded_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent transitions: %w", err)
	}
	return entries, nil
}

// CountSince returns how many transitions were recorded at or after the
// given instant. Used for the end-of-shift summary.
func (l *Log) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := l.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM transitions WHERE recorded_at >= ?", since)
	if err != nil {
		return 0, fmt.Errorf("counting transitions: %w", err)
	}
	return count, nil
}
