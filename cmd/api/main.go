// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	httpin "launchpad/internal/adapters/in/http"
	"launchpad/internal/infra/config"
	"launchpad/internal/infra/keepalive"
	"launchpad/internal/infra/logging"
	"launchpad/internal/platform/di"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[boot] config: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.IsProduction(), os.Stdout)

	// ─────────────────────────────────────────────────────────────
	// Lightweight healthz first so PORT is LISTENed quickly
	// ─────────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ─────────────────────────────────────────────────────────────
	// DI container & heavy deps; keep /healthz even on failure
	// ─────────────────────────────────────────────────────────────
	if cont, err := di.NewContainer(ctx, cfg); err != nil {
		log.WithError(err).Warn("[boot] di init failed (serving /healthz only)")
	} else {
		defer cont.Close()

		deps := cont.RouterDeps()
		log.WithFields(log.Fields{
			"production": cfg.IsProduction(),
			"cors":       deps.EnableCORS,
			"static":     deps.StaticDir,
			"auth":       deps.UserAuth != nil,
		}).Info("[boot] router deps")

		mux.Handle("/", httpin.NewRouter(deps))
	}

	// ─────────────────────────────────────────────────────────────
	// Keep-alive ping (free-tier hosts idle out after ~15 minutes)
	// ─────────────────────────────────────────────────────────────
	if c, err := keepalive.Start(cfg.KeepAliveSchedule, cfg.APIURL); err != nil {
		log.WithError(err).Warn("[boot] keepalive disabled")
	} else if c != nil {
		defer c.Stop()
	}

	port := cfg.Port
	if port == "" {
		port = "3001"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Infof("[boot] received signal: %v; shutting down...", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("[boot] server shutdown error")
		}
		close(idleConnsClosed)
	}()

	log.Infof("[boot] Server listening on port %s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[boot] server error: %v", err)
	}

	<-idleConnsClosed
	log.Info("[boot] server stopped")
}
