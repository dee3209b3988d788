// Package sync owns the reconciliation loop that keeps the local task
// store consistent with the dispatch backend. It merges three triggers
// into full-snapshot refetches: the initial session load, debounced
// change-feed notifications, and a fixed-interval poll that covers
// missed pushes.
package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"github.com/ecopickup/driversync/internal/model"
	"github.com/ecopickup/driversync/internal/store"
)

// fetchTimeout is the maximum time allowed for a single snapshot fetch.
const fetchTimeout = 30 * time.Second

// Backend provides the full task snapshot for a driver.
type Backend interface {
	FetchDriverTasks(ctx context.Context, driverID string) ([]model.Task, error)
}

// ChangeFeed pushes "something changed" notifications for a driver. The
// returned function cancels the subscription.
type ChangeFeed interface {
	Subscribe(driverID string, onChange func()) func()
}

// Update reports one completed refresh to the caller. Initial is true
// only for the session's first fetch: that is the single refresh a UI
// may surface a loading indicator for. Background refreshes must not
// disturb whatever the driver is looking at.
type Update struct {
	Initial   bool
	TaskCount int
	Err       error
}

// Status is a snapshot of the reconciler's health.
type Status struct {
	InitialLoadDone bool
	LastSync        time.Time
	LastErr         error
}

// Config carries the reconciler's tunables.
type Config struct {
	DriverID     string
	PollInterval time.Duration
	Debounce     time.Duration
}

// Reconciler drives the refetch loop for one driver session. Create it
// with New, call Start once, and Stop when the session ends; Stop tears
// down the feed subscription, the poll ticker, and any pending debounce.
type Reconciler struct {
	backend  Backend
	feed     ChangeFeed
	store    *store.TaskStore
	driverID string
	poll     time.Duration
	debounce time.Duration

	mu          gosync.Mutex
	running     bool
	stopped     bool
	alive       bool
	status      Status
	unsubscribe func()

	stopCh   chan struct{}
	changeCh chan struct{}
	updateCh chan Update
}

// New creates a Reconciler over the given backend and store. feed may be
// nil, in which case the loop degrades to poll-only.
func New(backend Backend, feed ChangeFeed, s *store.TaskStore, cfg Config) *Reconciler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 120 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	return &Reconciler{
		backend:  backend,
		feed:     feed,
		store:    s,
		driverID: cfg.DriverID,
		poll:     cfg.PollInterval,
		debounce: cfg.Debounce,
		stopCh:   make(chan struct{}),
		changeCh: make(chan struct{}, 1),
		updateCh: make(chan Update, 16),
	}
}

// Start subscribes to the change feed and launches the refresh loop,
// beginning with the initial load. Calling Start on a running or
// stopped reconciler is a no-op.
func (r *Reconciler) Start() {
	r.mu.Lock()
	if r.running || r.stopped {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.alive = true
	if r.feed != nil {
		r.unsubscribe = r.feed.Subscribe(r.driverID, r.RequestRefresh)
	}
	r.mu.Unlock()

	go r.run()
}

// Stop ends the session: unsubscribes from the feed, stops the loop, and
// marks the reconciler dead so a fetch still in flight is dropped
// instead of mutating a torn-down store.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.running = false
	r.stopped = true
	r.alive = false
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	close(r.stopCh)
}

// RequestRefresh schedules a debounced refresh, collapsing bursts of
// change notifications into a single fetch. Non-blocking.
func (r *Reconciler) RequestRefresh() {
	select {
	case r.changeCh <- struct{}{}:
	default:
		// A trigger is already queued; the debounce restart covers it.
	}
}

// Updates returns the channel of completed-refresh notifications.
// Sends are non-blocking; a slow consumer misses updates rather than
// stalling the loop.
func (r *Reconciler) Updates() <-chan Update {
	return r.updateCh
}

// Status returns the current sync health.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// run is the single goroutine that owns all refresh timing. The debounce
// is an explicit two-state machine: idle, or pending with a live timer.
// A change trigger while pending restarts the timer rather than queuing
// a second fetch.
func (r *Reconciler) run() {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	debounce := time.NewTimer(r.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false
	defer debounce.Stop()

	r.refresh(true)

	for {
		select {
		case <-r.stopCh:
			return

		case <-ticker.C:
			// Poll fallback for missed pushes; never surfaces loading.
			r.refresh(false)

		case <-r.changeCh:
			if pending && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(r.debounce)
			pending = true

		case <-debounce.C:
			pending = false
			r.refresh(false)
		}
	}
}

// refresh performs one full-snapshot fetch and replaces the store
// contents. Failures are logged and swallowed: the next trigger retries
// naturally, and a single failed background fetch is not user-facing.
func (r *Reconciler) refresh(initial bool) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	tasks, err := r.backend.FetchDriverTasks(ctx, r.driverID)

	r.mu.Lock()
	alive := r.alive
	r.mu.Unlock()
	if !alive {
		// Session ended while the fetch was in flight; drop the stale
		// response without touching the store.
		return
	}

	if err != nil {
		log.Printf("[sync] fetch for driver %s failed: %v", r.driverID, err)
		r.setStatus(func(st *Status) { st.LastErr = err })
		r.sendUpdate(Update{Initial: initial, Err: err})
		return
	}

	// Each payload is a consistent full snapshot, so whichever of two
	// overlapping fetches resolves last simply wins.
	r.store.ReplaceAll(tasks)

	r.setStatus(func(st *Status) {
		st.LastErr = nil
		st.LastSync = time.Now()
		if initial {
			st.InitialLoadDone = true
		}
	})
	r.sendUpdate(Update{Initial: initial, TaskCount: len(tasks)})
}

func (r *Reconciler) setStatus(mutate func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mutate(&r.status)
}

// sendUpdate sends on the update channel without blocking.
func (r *Reconciler) sendUpdate(u Update) {
	select {
	case r.updateCh <- u:
	default:
		// Drop if the channel is full to avoid blocking the loop.
	}
}
