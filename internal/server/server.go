package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kondate-app/kondate/internal/backup"
	"github.com/kondate-app/kondate/internal/export"
	"github.com/kondate-app/kondate/internal/handler"
	"github.com/kondate-app/kondate/internal/holiday"
	"github.com/kondate-app/kondate/internal/middleware"
	"github.com/kondate-app/kondate/internal/store"
	"github.com/kondate-app/kondate/internal/sync"
	ws "github.com/kondate-app/kondate/internal/websocket"
)

type Server struct {
	db              *sql.DB
	hub             *ws.Hub
	familyMemberH   *handler.FamilyMemberHandler
	mealSettingsH   *handler.MealSettingsHandler
	attendanceH     *handler.AttendanceHandler
	mealScheduleH   *handler.MealScheduleHandler
	shoppingH       *handler.ShoppingHandler
	exportH         *handler.ExportHandler
	backupH         *handler.BackupHandler
	holidayH        *handler.HolidayHandler
	rateLimiter     *middleware.RateLimiter
	backupManager   *backup.Manager
	syncCoordinator *sync.Coordinator
	logger          *slog.Logger
}

// New wires stores, services and handlers around one database handle.
// remote is the optional cross-device document store; nil runs the
// server purely local.
func New(db *sql.DB, backupCfg backup.Config, remote sync.DocumentStore, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyMemberStore := store.NewFamilyMemberStore(db)
	mealSettingsStore := store.NewMealSettingsStore(db)
	mealScheduleStore := store.NewMealScheduleStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	shoppingStore := store.NewShoppingStore(db)
	holidayStore := store.NewHolidayStore(db)
	backupStore := store.NewBackupStore(db)

	holidaySvc := holiday.NewService()
	exportSvc := export.NewService(familyMemberStore, mealSettingsStore, mealScheduleStore, attendanceStore, shoppingStore)

	backupMgr := backup.NewManager(backupCfg, exportSvc, backupStore, func(s backup.Status) {
		hub.Broadcast(ws.NewMessage(ws.TypeBackupStatus, map[string]any{
			"state":       s.State,
			"in_progress": s.InProgress,
			"error":       s.Error,
		}))
	})

	var (
		coordinator *sync.Coordinator
		pusher      handler.SyncPusher
	)
	if remote != nil {
		coordinator = sync.NewCoordinator(remote, attendanceStore, mealSettingsStore, hub, logger.With("component", "sync"))
		pusher = coordinator
	}

	return &Server{
		db:              db,
		hub:             hub,
		familyMemberH:   handler.NewFamilyMemberHandler(familyMemberStore, hub, logger.With("component", "family_member")),
		mealSettingsH:   handler.NewMealSettingsHandler(mealSettingsStore, hub, pusher, logger.With("component", "meal_settings")),
		attendanceH:     handler.NewAttendanceHandler(attendanceStore, familyMemberStore, mealSettingsStore, mealScheduleStore, holidayStore, hub, pusher, logger.With("component", "attendance")),
		mealScheduleH:   handler.NewMealScheduleHandler(mealScheduleStore, hub, logger.With("component", "meal_schedule")),
		shoppingH:       handler.NewShoppingHandler(shoppingStore, hub, logger.With("component", "shopping")),
		exportH:         handler.NewExportHandler(exportSvc, hub, logger.With("component", "export")),
		backupH:         handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup")),
		holidayH:        handler.NewHolidayHandler(holidaySvc, holidayStore, logger.With("component", "holiday")),
		rateLimiter:     middleware.NewRateLimiter(),
		backupManager:   backupMgr,
		syncCoordinator: coordinator,
		logger:          logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// SyncCoordinator returns the sync coordinator, nil when no remote is
// configured.
func (s *Server) SyncCoordinator() *sync.Coordinator {
	return s.syncCoordinator
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Family member API routes
	mux.HandleFunc("GET /api/family-members", s.familyMemberH.List)
	mux.HandleFunc("POST /api/family-members", s.familyMemberH.Create)
	mux.HandleFunc("PUT /api/family-members/{id}", s.familyMemberH.Update)
	mux.HandleFunc("DELETE /api/family-members/{id}", s.familyMemberH.Delete)
	mux.HandleFunc("PUT /api/family-members/sort", s.familyMemberH.UpdateSortOrder)

	// PIN routes
	mux.HandleFunc("POST /api/family-members/{id}/pin", s.familyMemberH.SetPIN)
	mux.HandleFunc("DELETE /api/family-members/{id}/pin", s.familyMemberH.ClearPIN)
	mux.HandleFunc("POST /api/family-members/{id}/pin/verify", s.rateLimitedHandler(s.familyMemberH.VerifyPIN))

	// Meal settings API routes
	mux.HandleFunc("GET /api/meal-settings", s.mealSettingsH.Get)
	mux.HandleFunc("GET /api/meal-settings/presets", s.mealSettingsH.ListPresets)
	mux.HandleFunc("PUT /api/meal-settings/preset", s.mealSettingsH.ApplyPreset)
	mux.HandleFunc("POST /api/meal-settings/enabled/toggle", s.mealSettingsH.ToggleEnabled)
	mux.HandleFunc("POST /api/meal-settings/defaults/toggle", s.mealSettingsH.ToggleDefault)
	mux.HandleFunc("POST /api/meal-settings/custom-types", s.mealSettingsH.AddCustomType)
	mux.HandleFunc("PUT /api/meal-settings/custom-types/{id}", s.mealSettingsH.UpdateCustomType)
	mux.HandleFunc("DELETE /api/meal-settings/custom-types/{id}", s.mealSettingsH.RemoveCustomType)

	// Attendance API routes
	mux.HandleFunc("PUT /api/attendance", s.attendanceH.Set)
	mux.HandleFunc("POST /api/attendance/toggle", s.attendanceH.Toggle)
	mux.HandleFunc("GET /api/attendance/day", s.attendanceH.Day)
	mux.HandleFunc("GET /api/attendance/week", s.attendanceH.Week)
	mux.HandleFunc("GET /api/attendance/month", s.attendanceH.Month)
	mux.HandleFunc("GET /api/attendance/agenda", s.attendanceH.Agenda)

	// Meal schedule API routes
	mux.HandleFunc("GET /api/meal-schedules", s.mealScheduleH.List)
	mux.HandleFunc("POST /api/meal-schedules", s.mealScheduleH.Create)
	mux.HandleFunc("GET /api/meal-schedules/{id}", s.mealScheduleH.Get)
	mux.HandleFunc("PUT /api/meal-schedules/{id}", s.mealScheduleH.Update)
	mux.HandleFunc("DELETE /api/meal-schedules/{id}", s.mealScheduleH.Delete)

	// Shopping list API routes
	mux.HandleFunc("GET /api/shopping-items", s.shoppingH.List)
	mux.HandleFunc("POST /api/shopping-items", s.shoppingH.Create)
	mux.HandleFunc("PUT /api/shopping-items/{id}", s.shoppingH.Update)
	mux.HandleFunc("DELETE /api/shopping-items/{id}", s.shoppingH.Delete)
	mux.HandleFunc("POST /api/shopping-items/{id}/toggle", s.shoppingH.ToggleCompleted)
	mux.HandleFunc("POST /api/shopping-items/clear-completed", s.shoppingH.ClearCompleted)

	// Export / import API routes
	mux.HandleFunc("GET /api/export", s.exportH.Export)
	mux.HandleFunc("POST /api/export/encrypted", s.exportH.ExportEncrypted)
	mux.HandleFunc("POST /api/import", s.rateLimitedHandler(s.exportH.Import))
	mux.HandleFunc("POST /api/import/encrypted", s.rateLimitedHandler(s.exportH.ImportEncrypted))

	// Backup API routes
	mux.HandleFunc("POST /api/backups/run", s.backupH.Run)
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.GetStatus)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.backupH.Restore)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)

	// Holiday API routes
	mux.HandleFunc("GET /api/holidays", s.holidayH.List)
	mux.HandleFunc("POST /api/holidays/refresh", s.holidayH.Refresh)

	// Sync status
	mux.HandleFunc("GET /api/sync/status", s.syncStatusHandler)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) syncStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.syncCoordinator == nil {
		json.NewEncoder(w).Encode(map[string]string{"state": "disabled"})
		return
	}
	json.NewEncoder(w).Encode(s.syncCoordinator.Status())
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
