// main is the entry point of the Students Service.
//
// STARTUP SEQUENCE:
//  1. Load configuration (YAML file / env vars / built-in defaults)
//  2. Initialise the logger
//  3. Build the MongoDB client — fire-and-forget: the server does not
//     have to be reachable, reads degrade to the fallback dataset
//  4. Register all HTTP routes
//  5. Bind the default port; if it is taken, bind the fallback port
//  6. Serve in a separate goroutine
//  7. Block until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, disconnect
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-service
//
// or with an explicit config file:
//
//	go run ./cmd/students-service --config=config/local.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classroomlabs/students-service/internal/config"
	"github.com/classroomlabs/students-service/internal/http/handlers/student"
	"github.com/classroomlabs/students-service/internal/storage/mongodb"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// slog is Go's structured logger (stdlib since Go 1.21); handlers
	// log through the package-level default set here.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-service",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	// mongodb.New never waits for the server: the client dials lazily
	// and the collection validator is installed in the background. The
	// HTTP listener below starts either way.
	// We keep the concrete *MongoDB for Close(), but the handlers see
	// only the storage.Storage interface.
	db, err := mongodb.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("uri", cfg.Mongo.URI),
		slog.String("database", cfg.Mongo.Database))

	// ── 4. Register HTTP Routes ───────────────────────────────────────────
	// The handler functions are FACTORIES — they receive the storage
	// once and return the actual handler (closure pattern).
	//
	// Route table:
	//   GET    /                → aggregate service info
	//   POST   /students        → create a new student
	//   GET    /students        → list all students (degrades, never fails)
	//   GET    /students/{id}   → get one student by id
	//   PUT    /students/{id}   → update a student
	//   DELETE /students/{id}   → delete a student
	router := http.NewServeMux()

	// "/{$}" matches exactly "/" — without the {$} the pattern would
	// swallow every path that matches nothing else.
	router.HandleFunc("GET /{$}", student.Info(db))
	router.HandleFunc("POST /students", student.New(db))
	router.HandleFunc("GET /students", student.GetList(db))
	router.HandleFunc("GET /students/{id}", student.GetByID(db))
	router.HandleFunc("PUT /students/{id}", student.Update(db))
	router.HandleFunc("DELETE /students/{id}", student.Delete(db))

	// ── 5. Bind the Listener ──────────────────────────────────────────────
	// Try the default port first; if something already holds it, fall
	// back to the alternate port instead of failing startup.
	addr := fmt.Sprintf(":%d", cfg.HTTPServer.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Warn("default port unavailable, trying fallback",
			slog.Int("port", cfg.HTTPServer.Port),
			slog.Int("fallback_port", cfg.HTTPServer.FallbackPort))

		addr = fmt.Sprintf(":%d", cfg.HTTPServer.FallbackPort)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("failed to bind fallback port",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	server := &http.Server{
		Handler: router,

		// Timeouts guard against slow clients holding connections open.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 6. Serve in a Goroutine ───────────────────────────────────────────
	// Serve blocks forever; running it here would keep the graceful-
	// shutdown code below from ever executing.
	go func() {
		log.Info("server started", slog.String("address", addr))

		// Serve returns http.ErrServerClosed when Shutdown() is
		// called — expected, not an error worth logging.
		if err := server.Serve(listener); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	// Buffered so the signal is not missed if main is briefly busy.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	// 5 seconds for in-flight requests, then the context cancels.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
	}

	if err := db.Close(ctx); err != nil {
		log.Error("failed to disconnect storage",
			slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given
// environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
