/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the time-tracking extension server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Build zap logger
  3. Choose the backing store: host custom-data API when HOST_API_URL is
     set, local SQLite otherwise
  4. Wire directory and absence clients (host API only)
  5. Create service, handler, router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path for standalone mode (default: timetrack.db)
           Use ":memory:" for in-memory database
  -dev     Development mode logging (human-readable, debug level)

ENVIRONMENT:
  HOST_API_URL    Base URL of the host platform API (enables hosted mode)
  HOST_API_TOKEN  Login token for the host API
  HOST_MODULE     Custom-data module name (default: timetracking)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Standalone with a local file database
  ./server -db="./data/timetrack.db"

  # Hosted mode against the platform API
  HOST_API_URL=https://host.example.com/api HOST_API_TOKEN=... ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Standalone storage
  - kvstore/httpapi/client.go: Hosted storage
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stundenwerk/timetrack-engine/api"
	"github.com/stundenwerk/timetrack-engine/directory"
	"github.com/stundenwerk/timetrack-engine/kvstore"
	"github.com/stundenwerk/timetrack-engine/kvstore/httpapi"
	"github.com/stundenwerk/timetrack-engine/store/sqlite"
	"github.com/stundenwerk/timetrack-engine/tracker"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "timetrack.db", "SQLite database path (standalone mode)")
	dev := flag.Bool("dev", false, "Development mode logging")
	flag.Parse()

	// .env is optional; flags and real env win.
	_ = godotenv.Load()

	log, err := buildLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Storage and host collaborators
	var (
		kv       kvstore.Store
		groups   directory.GroupClient
		absences tracker.AbsenceClient
		closer   func() error
	)
	if os.Getenv("HOST_API_URL") != "" {
		client, err := httpapi.NewClientFromEnv()
		if err != nil {
			log.Fatal("host API configuration invalid", zap.Error(err))
		}
		kv = client
		absences = client
		groups = directory.NewHTTPClient(client.BaseURL, client.Token)
		log.Info("using host custom-data API", zap.String("baseUrl", client.BaseURL), zap.String("module", client.Module))
	} else {
		store, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		kv = store
		closer = store.Close
		groups = &directory.Static{}
		log.Info("using local SQLite store", zap.String("path", *dbPath))
	}
	if closer != nil {
		defer closer()
	}

	service := tracker.NewService(kv, groups, absences, log)
	handler := api.NewHandler(service, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", zap.String("addr", fmt.Sprintf("http://localhost:%d", *port)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
