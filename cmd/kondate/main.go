package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kondate-app/kondate/internal/backup"
	"github.com/kondate-app/kondate/internal/database"
	"github.com/kondate-app/kondate/internal/holiday"
	"github.com/kondate-app/kondate/internal/logging"
	"github.com/kondate-app/kondate/internal/server"
	"github.com/kondate-app/kondate/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	// Optional; absence of a .env file is not an error.
	godotenv.Load()

	logger := logging.Setup(os.Getenv("KONDATE_LOG_LEVEL"), os.Getenv("KONDATE_LOG_FORMAT"))

	port := envOr("KONDATE_PORT", "8080")
	dbPath := envOr("KONDATE_DB_PATH", "kondate.db")

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("KONDATE_S3_ENDPOINT"),
			Bucket:    os.Getenv("KONDATE_S3_BUCKET"),
			Region:    envOr("KONDATE_S3_REGION", "auto"),
			AccessKey: os.Getenv("KONDATE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("KONDATE_S3_SECRET_KEY"),
		},
		Passphrase:    os.Getenv("KONDATE_BACKUP_PASSPHRASE"),
		ScheduleHour:  envInt("KONDATE_BACKUP_HOUR", 3),
		RetentionDays: envInt("KONDATE_BACKUP_RETENTION_DAYS", 30),
	}

	srv := server.New(db, backupCfg, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backupMgr := srv.BackupManager()
	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	// Warm the holiday cache so schedule views classify rest days
	// without waiting on the feed.
	go func() {
		svc := holiday.NewService()
		hs := store.NewHolidayStore(db)
		year := time.Now().UTC().Year()
		for _, y := range []int{year, year + 1} {
			if err := hs.ReplaceYear(y, svc.Holidays(y)); err != nil {
				logger.Warn("holiday cache refresh failed", "year", y, "error", err)
			}
		}
	}()

	// Rate limiter bookkeeping
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Kondate running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
