// Package sync reconciles local state with a remote document store.
// Inbound snapshots flow through a single consumer so application order
// is deterministic; conflicts resolve last-writer-wins by updatedAt.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kondate-app/kondate/internal/attendance"
	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/websocket"
)

// DocumentStore is the remote boundary. Implementations map these to a
// cloud document database: the settings document, one attendance
// document per record keyed {userId}_{date}_{mealType}, and a snapshot
// subscription delivering remote changes.
type DocumentStore interface {
	SaveSettings(ctx context.Context, s model.FamilyMealSettings) error
	SaveAttendance(ctx context.Context, r model.AttendanceRecord) error
	Snapshots(ctx context.Context) (<-chan Snapshot, error)
}

// Snapshot is one remote state notification. Token orders snapshots:
// a snapshot whose token is not greater than the last applied one is
// stale and dropped. Nil Settings means the snapshot carries no
// settings change.
type Snapshot struct {
	Token    uint64
	Settings *model.FamilyMealSettings
	Records  []model.AttendanceRecord
}

// State of the coordinator, surfaced to clients as sync_status.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
)

// Status is the sync_status payload.
type Status struct {
	State    State      `json:"state"`
	LastSync *time.Time `json:"last_sync,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Broadcaster is the hub surface the coordinator needs.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

const (
	pushRetryBase = 500 * time.Millisecond
	pushRetryMax  = 5
)

// Coordinator applies remote snapshots to the local stores and pushes
// local writes to the remote with retries.
type Coordinator struct {
	remote     DocumentStore
	attendance *store.AttendanceStore
	settings   *store.MealSettingsStore
	hub        Broadcaster
	logger     *slog.Logger

	retryBase time.Duration
	retryMax  uint64

	mu        sync.RWMutex
	status    Status
	lastToken uint64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCoordinator(remote DocumentStore, attendance *store.AttendanceStore, settings *store.MealSettingsStore, hub Broadcaster, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		remote:     remote,
		attendance: attendance,
		settings:   settings,
		hub:        hub,
		logger:     logger,
		retryBase:  pushRetryBase,
		retryMax:   pushRetryMax,
		status:     Status{State: StateIdle},
	}
}

// Start subscribes to remote snapshots and consumes them until the
// context is cancelled or Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	snapshots, err := c.remote.Snapshots(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to snapshots: %w", err)
	}

	c.mu.Lock()
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				c.apply(snap)
			}
		}
	}()

	return nil
}

// Stop cancels the consumer and waits for it to drain.
func (c *Coordinator) Stop() {
	c.mu.RLock()
	cancel := c.cancel
	done := c.done
	c.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current sync status.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.Broadcast(websocket.NewMessage(websocket.TypeSyncStatus, s))
	}
}

// apply reconciles one snapshot into the local stores. Stale snapshots
// are dropped by token so delayed deliveries cannot roll state back.
func (c *Coordinator) apply(snap Snapshot) {
	c.mu.Lock()
	if snap.Token != 0 && snap.Token <= c.lastToken {
		c.mu.Unlock()
		c.logger.Debug("dropping stale snapshot", "token", snap.Token, "last", c.lastToken)
		return
	}
	if snap.Token != 0 {
		c.lastToken = snap.Token
	}
	c.mu.Unlock()

	c.setStatus(Status{State: StateSyncing})

	if err := c.applySettings(snap.Settings); err != nil {
		c.failed("apply settings", err)
		return
	}
	if err := c.applyRecords(snap.Records); err != nil {
		c.failed("apply attendance", err)
		return
	}

	now := time.Now().UTC()
	c.setStatus(Status{State: StateIdle, LastSync: &now})
}

func (c *Coordinator) applySettings(remote *model.FamilyMealSettings) error {
	if remote == nil {
		return nil
	}
	if err := mealsettings.Validate(*remote); err != nil {
		// A bad remote document must not clobber a valid local one.
		return fmt.Errorf("remote settings rejected: %w", err)
	}

	// Last-write-wins only applies once settings have actually been
	// written locally. A fresh install holds the synthesized default,
	// which is not a write and must not outrank the family's document.
	stored, err := c.settings.Stored()
	if err != nil {
		return err
	}
	if stored {
		local, err := c.settings.Load()
		if err != nil {
			return err
		}
		if !remote.UpdatedAt.After(local.UpdatedAt) {
			return nil
		}
	}
	if err := c.settings.Save(*remote); err != nil {
		return err
	}
	if c.hub != nil {
		c.hub.Broadcast(websocket.NewMessage(websocket.TypeSettingsChanged, remote))
	}
	return nil
}

func (c *Coordinator) applyRecords(records []model.AttendanceRecord) error {
	var changed []model.AttendanceRecord
	for _, remote := range records {
		if !remote.Status.Valid() {
			c.logger.Warn("skipping remote record with invalid status", "id", remote.Key(), "status", remote.Status)
			continue
		}
		local, err := c.attendance.Get(remote.UserID, remote.Date, remote.MealType, remote.CustomTypeID)
		if err != nil {
			return err
		}
		var set []model.AttendanceRecord
		if local != nil {
			set = []model.AttendanceRecord{*local}
		}
		merged := attendance.Merge(set, remote)
		rec := merged[0]
		// Merge keeps the local record when the remote one loses LWW.
		if local != nil && rec == *local {
			continue
		}
		if err := c.attendance.Upsert(rec); err != nil {
			return err
		}
		changed = append(changed, rec)
	}
	if len(changed) > 0 && c.hub != nil {
		c.hub.Broadcast(websocket.NewMessage(websocket.TypeAttendanceChanged, changed))
	}
	return nil
}

func (c *Coordinator) failed(stage string, err error) {
	c.logger.Error("sync failed", "stage", stage, "error", err)
	c.setStatus(Status{State: StateError, Error: fmt.Sprintf("%s: %v", stage, err)})
}

// PushAttendance writes one record to the remote, retrying transient
// failures with fibonacci backoff. Local state is already committed by
// the caller; a push failure only degrades sync status.
func (c *Coordinator) PushAttendance(ctx context.Context, r model.AttendanceRecord) error {
	return c.push(ctx, "push attendance", func(ctx context.Context) error {
		return c.remote.SaveAttendance(ctx, r)
	})
}

// PushSettings writes the settings document to the remote.
func (c *Coordinator) PushSettings(ctx context.Context, s model.FamilyMealSettings) error {
	return c.push(ctx, "push settings", func(ctx context.Context) error {
		return c.remote.SaveSettings(ctx, s)
	})
}

func (c *Coordinator) push(ctx context.Context, stage string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(c.retryMax, retry.NewFibonacci(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		c.failed(stage, err)
		return fmt.Errorf("%s: %w", stage, err)
	}

	now := time.Now().UTC()
	c.setStatus(Status{State: StateIdle, LastSync: &now})
	return nil
}
