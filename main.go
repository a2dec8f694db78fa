package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"splitpot/backend/api"
	"splitpot/backend/config"
	"splitpot/backend/database"
	"splitpot/backend/handlers"
	"splitpot/backend/middleware"
	"splitpot/backend/security"
	"splitpot/backend/services"
)

func main() {
	noExit := flag.Bool("no-exit", false, "Don't exit after database reset")
	resetDB := flag.Bool("reset-db", false, "Force reset the database")
	flag.Parse()

	cfg := config.Load()

	isResetDB := os.Getenv("RESET_DB") == "true" || *resetDB
	exitAfterReset := isResetDB && !*noExit

	// Development starts from a fresh database unless told otherwise
	if !cfg.IsProduction() && !cfg.NoDBReset {
		log.Println("Running in development mode - automatically resetting database")
		isResetDB = true
	}

	security.InitializeEncryption(cfg.EncryptionKey)

	if isResetDB {
		if cfg.Database.Driver == database.DriverPostgres {
			log.Println("Warning: database reset is only supported for SQLite, keeping PostgreSQL data")
		} else if err := database.ResetSQLite(cfg.Database.Path); err != nil {
			log.Fatal(err)
		}
	}

	// Opens the database and runs migrations, seeding dev data when enabled
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if exitAfterReset {
		log.Println("Database reset completed successfully. Exiting.")
		return
	}

	log.Println("Initializing Firebase Admin SDK...")
	if err := middleware.InitializeFirebase(cfg.Firebase); err != nil {
		log.Printf("Warning: Failed to initialize Firebase: %v", err)
		log.Println("Auth token verification will be disabled!")
	}

	handlers.ProjectionWorkers = cfg.ProjectionWorkers

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services.StartScheduler(ctx)

	r := api.NewRouter(cfg)

	// Serve the frontend build from ./dist
	fs := http.FileServer(http.Dir("./dist"))
	r.PathPrefix("/assets/").Handler(fs)
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			log.Printf("Serving index.html for path: %s", r.URL.Path)
		}
		http.ServeFile(w, r, "./dist/index.html")
	}).Methods("GET")

	srv := &http.Server{
		Handler:      r,
		Addr:         ":" + cfg.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Starting server on port %s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
