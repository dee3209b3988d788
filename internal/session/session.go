// Package session wires the driver-facing core together for the
// lifetime of one driver login: the task store, the reconciliation loop,
// the bulk transition coordinator, and the navigation handoff. It is
// created on session start and torn down on logout, so no timers or
// subscriptions leak across sessions.
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ecopickup/driversync/internal/backend"
	"github.com/ecopickup/driversync/internal/history"
	"github.com/ecopickup/driversync/internal/model"
	"github.com/ecopickup/driversync/internal/route"
	"github.com/ecopickup/driversync/internal/store"
	appsync "github.com/ecopickup/driversync/internal/sync"
	"github.com/ecopickup/driversync/internal/transition"
)

// Session owns the per-login state of one driver.
type Session struct {
	cfg         *model.AppConfig
	tasks       *store.TaskStore
	reconciler  *appsync.Reconciler
	coordinator *transition.Coordinator

	// OpenNavigation hands a directions URL to the OS-level maps
	// application. Replaceable for tests and headless runs.
	OpenNavigation func(url string) error
}

// New builds a session over the given backend client and change feed.
// journal may be nil to disable the local confirmation journal.
func New(cfg *model.AppConfig, client *backend.Client, feed *backend.Feed, journal *history.Log) *Session {
	tasks := store.New()

	var changeFeed appsync.ChangeFeed
	if feed != nil {
		changeFeed = feed
	}
	reconciler := appsync.New(client, changeFeed, tasks, appsync.Config{
		DriverID:     cfg.Backend.DriverID,
		PollInterval: time.Duration(cfg.Sync.PollIntervalSec) * time.Second,
		Debounce:     time.Duration(cfg.Sync.DebounceMs) * time.Millisecond,
	})

	return &Session{
		cfg:         cfg,
		tasks:       tasks,
		reconciler:  reconciler,
		coordinator: transition.New(client, tasks, journal),
		OpenNavigation: func(url string) error {
			log.Printf("[session] navigation: %s", url)
			return nil
		},
	}
}

// Start begins reconciliation, including the initial load.
func (s *Session) Start() {
	s.reconciler.Start()
}

// Stop tears the session down. Safe to call more than once.
func (s *Session) Stop() {
	s.reconciler.Stop()
}

// Store exposes the live task list.
func (s *Session) Store() *store.TaskStore {
	return s.tasks
}

// Updates exposes completed-refresh notifications from the reconciler.
func (s *Session) Updates() <-chan appsync.Update {
	return s.reconciler.Updates()
}

// SyncStatus reports the reconciler's health.
func (s *Session) SyncStatus() appsync.Status {
	return s.reconciler.Status()
}

// PendingByUrgency returns tasks awaiting pickup, most time-critical
// first. This is the canonical order shown to the driver.
func (s *Session) PendingByUrgency(now time.Time) []model.Task {
	return store.SortedByUrgency(s.tasks.Pending(), now)
}

// PlanRoute sequences the selected tasks from the driver's position.
// origin may be nil when the device location is unknown; the sequencing
// then starts from the first routable stop while the navigation URL
// leaves the start to the maps application.
func (s *Session) PlanRoute(origin *model.Coordinates, ids []string) (*route.Plan, error) {
	selected := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks.Get(id); ok {
			selected = append(selected, t)
		}
	}
	return route.Sequence(origin, route.WaypointsFromTasks(selected))
}

// Navigate hands a computed plan to the external maps application.
func (s *Session) Navigate(plan *route.Plan) error {
	return s.OpenNavigation(plan.NavigationURL)
}

// ConfirmBulk applies a batch transition and returns the result along
// with a partial-success message such as "8 of 10 confirmed".
func (s *Session) ConfirmBulk(ctx context.Context, ids []string, target model.TaskStatus, proof *model.Proof) (transition.Result, string) {
	res := s.coordinator.ApplyBulk(ctx, ids, target, proof)
	msg := fmt.Sprintf("%d of %d confirmed", len(res.SucceededIDs), res.Attempted())
	return res, msg
}
