/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the night-audit server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment configuration
  2. Parse command-line flags
  3. Initialize store (SQLite, or seeded in-memory for demos)
  4. Wire the closure coordinator and its collaborators
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: SERVER_PORT or 8080)
  -db      SQLite database path (default: DB_PATH or nightaudit.db)
           Use ":memory:" for in-memory SQLite
  -demo    Ignore -db, run a seeded in-memory store

ENVIRONMENT:
  SERVER_PORT, DB_PATH, ENVIRONMENT, OPENING_DATE,
  AMQP_URL, EVENT_QUEUE, REPORT_QUEUE,
  JWT_SECRET, REPORT_RECIPIENTS
  A .env file in the working directory is loaded if present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/hotel.db"

  # Run a seeded demo
  ./server -demo

SEE ALSO:
  - api/server.go: Router configuration
  - audit/coordinator.go: The closure engine
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/innkeep/night-audit/api"
	"github.com/innkeep/night-audit/audit"
	"github.com/innkeep/night-audit/config"
	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
	"github.com/innkeep/night-audit/notify"
	"github.com/innkeep/night-audit/report"
	"github.com/innkeep/night-audit/store/memory"
	"github.com/innkeep/night-audit/store/sqlite"
)

// engineStore is the full persistence surface the coordinator needs.
type engineStore interface {
	hotel.ReservationStore
	hotel.RoomStore
	hotel.ChecklistStore
	folio.Store
	audit.Store
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Flags override the environment
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	demo := flag.Bool("demo", false, "run a seeded in-memory store")
	flag.Parse()

	opening := hotel.DateOf(time.Now())
	if cfg.OpeningDate != "" {
		var err error
		if opening, err = hotel.ParseDate(cfg.OpeningDate); err != nil {
			log.Fatalf("Invalid OPENING_DATE: %v", err)
		}
	}

	// Initialize store
	var store engineStore
	if *demo {
		mem := memory.New(opening)
		if err := memory.Seed(context.Background(), mem, opening); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		store = mem
		log.Printf("Demo mode: seeded in-memory store, opening %s", opening)
	} else {
		db, err := sqlite.New(*dbPath, opening)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		store = db
	}

	// Optional queue-backed collaborators
	notifier := notify.Discard
	var exporter report.Exporter = report.NewHTMLExporter(nil)
	if cfg.AMQPURL != "" {
		notifier = notify.NewAMQPPublisher(cfg.AMQPURL, cfg.EventQueue)
		exporter = report.NewHTMLExporter(report.NewQueueDispatcher(cfg.AMQPURL, cfg.ReportQueue))
		log.Printf("Publishing events to %q and reports to %q", cfg.EventQueue, cfg.ReportQueue)
	}

	coordinator := &audit.Coordinator{
		Reservations: store,
		Rooms:        store,
		Folios:       store,
		Audit:        store,
		Shifts:       hotel.NoOpenShifts,
		Checklist:    store,
		Lock:         audit.NewSystemLock(),
		Ledger:       &folio.Ledger{Numbers: folio.NewNumberSource()},
		Exporter:     exporter,
		Notifier:     notifier,
	}
	overrides := &audit.OverrideManager{Audit: store, Notifier: notifier}

	handler := api.NewHandler(coordinator, overrides)
	handler.DefaultRecipients = cfg.ReportRecipients
	router := api.NewRouter(handler, cfg.JWTSecret)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Night audit server starting on http://localhost:%s", *port)
		log.Printf("API available at http://localhost:%s/api", *port)
		if cfg.JWTSecret == "" {
			log.Printf("WARNING: JWT_SECRET not set, auth disabled")
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
