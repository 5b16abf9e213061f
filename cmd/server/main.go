/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the procurement engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env file + environment)
  2. Initialize SQLite store
  3. Build the holiday calendar for the configured jurisdiction
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

CONFIGURATION:
  APP_ENV                  development (default) or production
  HTTP_HOST / HTTP_PORT    Listen address (default 0.0.0.0:8080)
  DB_PATH                  SQLite database path (":memory:" works)
  CALENDAR_JURISDICTION    metropole (default) or alsace-moselle
  CORS_ORIGINS             Comma-separated allowed origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/procurement-engine/api"
	"github.com/warp/procurement-engine/config"
	"github.com/warp/procurement-engine/engine"
	"github.com/warp/procurement-engine/logger"
	"github.com/warp/procurement-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	calendar := engine.NewHolidayCalendar(cfg.Calendar.Jurisdiction)
	handler := api.NewHandler(store, calendar, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("jurisdiction", string(cfg.Calendar.Jurisdiction)).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
