package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kondate-app/kondate/internal/database"
	"github.com/kondate-app/kondate/internal/mealsettings"
	"github.com/kondate-app/kondate/internal/model"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/websocket"
)

// fakeRemote implements DocumentStore in memory.
type fakeRemote struct {
	mu              sync.Mutex
	snapshots       chan Snapshot
	savedSettings   []model.FamilyMealSettings
	savedRecords    []model.AttendanceRecord
	failSaves       int // fail this many saves before succeeding
	subscribeFailed bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{snapshots: make(chan Snapshot, 8)}
}

func (f *fakeRemote) SaveSettings(_ context.Context, s model.FamilyMealSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves > 0 {
		f.failSaves--
		return errors.New("remote unavailable")
	}
	f.savedSettings = append(f.savedSettings, s)
	return nil
}

func (f *fakeRemote) SaveAttendance(_ context.Context, r model.AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves > 0 {
		f.failSaves--
		return errors.New("remote unavailable")
	}
	f.savedRecords = append(f.savedRecords, r)
	return nil
}

func (f *fakeRemote) Snapshots(_ context.Context) (<-chan Snapshot, error) {
	if f.subscribeFailed {
		return nil, errors.New("subscribe failed")
	}
	return f.snapshots, nil
}

// captureHub records broadcast messages.
type captureHub struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (h *captureHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	h.msgs = append(h.msgs, msg)
	h.mu.Unlock()
}

func (h *captureHub) byType(msgType string) []websocket.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []websocket.Message
	for _, m := range h.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func setupCoordinator(t *testing.T) (*Coordinator, *fakeRemote, *captureHub, *store.AttendanceStore, *store.MealSettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	attendance := store.NewAttendanceStore(db)
	settings := store.NewMealSettingsStore(db)
	remote := newFakeRemote()
	hub := &captureHub{}

	c := NewCoordinator(remote, attendance, settings, hub, slog.Default())
	c.retryBase = time.Millisecond
	return c, remote, hub, attendance, settings
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func remoteRecord(userID int64, date string, status model.AttendanceStatus, at time.Time) model.AttendanceRecord {
	return model.AttendanceRecord{
		UserID:    userID,
		Date:      date,
		MealType:  model.MealTypeDinner,
		Status:    status,
		UpdatedAt: at,
	}
}

func TestSnapshotAppliesRecords(t *testing.T) {
	c, remote, hub, attendance, _ := setupCoordinator(t)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	remote.snapshots <- Snapshot{
		Token:   1,
		Records: []model.AttendanceRecord{remoteRecord(1, "2024-06-10", model.AttendancePresent, now)},
	}

	waitFor(t, func() bool {
		rec, err := attendance.Get(1, "2024-06-10", model.MealTypeDinner, "")
		return err == nil && rec != nil
	})

	rec, _ := attendance.Get(1, "2024-06-10", model.MealTypeDinner, "")
	if rec.Status != model.AttendancePresent {
		t.Errorf("status = %q", rec.Status)
	}
	if rec.ID != "1_2024-06-10_dinner" {
		t.Errorf("id = %q", rec.ID)
	}

	if len(hub.byType(websocket.TypeAttendanceChanged)) == 0 {
		t.Error("expected attendance_changed broadcast")
	}
	if len(hub.byType(websocket.TypeSyncStatus)) == 0 {
		t.Error("expected sync_status broadcasts")
	}
}

func TestSnapshotStaleTokenDropped(t *testing.T) {
	c, remote, _, attendance, _ := setupCoordinator(t)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	t1 := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	remote.snapshots <- Snapshot{
		Token:   5,
		Records: []model.AttendanceRecord{remoteRecord(1, "2024-06-10", model.AttendancePresent, t1)},
	}
	waitFor(t, func() bool {
		rec, _ := attendance.Get(1, "2024-06-10", model.MealTypeDinner, "")
		return rec != nil
	})

	// A delayed snapshot with an older token must not apply, even
	// though its record carries a newer timestamp.
	remote.snapshots <- Snapshot{
		Token:   3,
		Records: []model.AttendanceRecord{remoteRecord(1, "2024-06-10", model.AttendanceAbsent, t1.Add(time.Hour))},
	}
	// Anchor: a later snapshot that does apply.
	remote.snapshots <- Snapshot{
		Token:   6,
		Records: []model.AttendanceRecord{remoteRecord(2, "2024-06-10", model.AttendancePresent, t1)},
	}
	waitFor(t, func() bool {
		rec, _ := attendance.Get(2, "2024-06-10", model.MealTypeDinner, "")
		return rec != nil
	})

	rec, _ := attendance.Get(1, "2024-06-10", model.MealTypeDinner, "")
	if rec.Status != model.AttendancePresent {
		t.Errorf("stale snapshot was applied: status = %q", rec.Status)
	}
}

func TestSnapshotLastWriterWins(t *testing.T) {
	c, remote, _, attendance, _ := setupCoordinator(t)

	newer := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	local := remoteRecord(1, "2024-06-10", model.AttendancePresent, newer)
	local.ID = local.Key()
	if err := attendance.Upsert(local); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	// Remote record is older than the local write and must lose.
	remote.snapshots <- Snapshot{
		Token:   1,
		Records: []model.AttendanceRecord{remoteRecord(1, "2024-06-10", model.AttendanceAbsent, newer.Add(-time.Hour))},
	}
	// Second, newer remote record for another user as an anchor.
	remote.snapshots <- Snapshot{
		Token:   2,
		Records: []model.AttendanceRecord{remoteRecord(2, "2024-06-10", model.AttendancePresent, newer)},
	}
	waitFor(t, func() bool {
		rec, _ := attendance.Get(2, "2024-06-10", model.MealTypeDinner, "")
		return rec != nil
	})

	rec, _ := attendance.Get(1, "2024-06-10", model.MealTypeDinner, "")
	if rec.Status != model.AttendancePresent {
		t.Errorf("older remote overwrote newer local: status = %q", rec.Status)
	}
}

func TestSnapshotSettingsNewerWins(t *testing.T) {
	c, remote, hub, _, settings := setupCoordinator(t)

	base := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	localSettings := mealsettings.DefaultSettings(base)
	if err := settings.Save(localSettings); err != nil {
		t.Fatalf("save local settings: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	remoteSettings, err := mealsettings.ApplyPreset("three_meals", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("apply preset: %v", err)
	}
	remote.snapshots <- Snapshot{Token: 1, Settings: &remoteSettings}

	waitFor(t, func() bool {
		s, err := settings.Load()
		return err == nil && len(s.EnabledMealTypes) == len(remoteSettings.EnabledMealTypes)
	})

	if len(hub.byType(websocket.TypeSettingsChanged)) == 0 {
		t.Error("expected settings_changed broadcast")
	}
}

func TestSnapshotSettingsAdoptedOnFreshInstall(t *testing.T) {
	c, remote, _, _, settings := setupCoordinator(t)

	// No settings have ever been saved locally. The remote document
	// predates this install, but the synthesized default is not a
	// write and must not outrank it.
	if stored, err := settings.Stored(); err != nil || stored {
		t.Fatalf("Stored() = %v, %v, want false on fresh db", stored, err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	past := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	remoteSettings, err := mealsettings.ApplyPreset("three_meals", past)
	if err != nil {
		t.Fatalf("apply preset: %v", err)
	}
	remote.snapshots <- Snapshot{Token: 1, Settings: &remoteSettings}

	waitFor(t, func() bool {
		stored, err := settings.Stored()
		return err == nil && stored
	})

	got, err := settings.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.EnabledMealTypes) != len(remoteSettings.EnabledMealTypes) {
		t.Errorf("remote settings not adopted: enabled = %v", got.EnabledMealTypes)
	}
	if !got.UpdatedAt.Equal(past) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, past)
	}
}

func TestSnapshotInvalidSettingsRejected(t *testing.T) {
	c, remote, _, _, settings := setupCoordinator(t)

	base := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	localSettings := mealsettings.DefaultSettings(base)
	if err := settings.Save(localSettings); err != nil {
		t.Fatalf("save local settings: %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Stop()

	bad := model.FamilyMealSettings{UpdatedAt: base.Add(time.Hour)}
	remote.snapshots <- Snapshot{Token: 1, Settings: &bad}

	waitFor(t, func() bool { return c.Status().State == StateError })

	got, err := settings.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.EnabledMealTypes) != len(localSettings.EnabledMealTypes) {
		t.Errorf("invalid remote settings clobbered local: %+v", got)
	}
}

func TestPushAttendanceRetries(t *testing.T) {
	c, remote, _, _, _ := setupCoordinator(t)
	remote.failSaves = 2

	rec := remoteRecord(1, "2024-06-10", model.AttendancePresent, time.Now().UTC())
	if err := c.PushAttendance(context.Background(), rec); err != nil {
		t.Fatalf("push: %v", err)
	}

	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.savedRecords) != 1 {
		t.Errorf("saved %d records, want 1", len(remote.savedRecords))
	}
	if c.Status().State != StateIdle {
		t.Errorf("status = %q, want idle", c.Status().State)
	}
}

func TestPushAttendanceExhaustsRetries(t *testing.T) {
	c, remote, hub, _, _ := setupCoordinator(t)
	remote.failSaves = 100

	rec := remoteRecord(1, "2024-06-10", model.AttendancePresent, time.Now().UTC())
	if err := c.PushAttendance(context.Background(), rec); err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	if c.Status().State != StateError {
		t.Errorf("status = %q, want error", c.Status().State)
	}
	if len(hub.byType(websocket.TypeSyncStatus)) == 0 {
		t.Error("expected sync_status broadcast for failure")
	}
}

func TestPushSettings(t *testing.T) {
	c, remote, _, _, _ := setupCoordinator(t)

	s := mealsettings.DefaultSettings(time.Now().UTC())
	if err := c.PushSettings(context.Background(), s); err != nil {
		t.Fatalf("push settings: %v", err)
	}

	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.savedSettings) != 1 {
		t.Errorf("saved %d settings docs, want 1", len(remote.savedSettings))
	}
}

func TestStartSubscribeFailure(t *testing.T) {
	c, remote, _, _, _ := setupCoordinator(t)
	remote.subscribeFailed = true

	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected subscribe error")
	}
}

func TestStopWithoutStart(t *testing.T) {
	c, _, _, _, _ := setupCoordinator(t)
	// Should not panic or block.
	c.Stop()
}
