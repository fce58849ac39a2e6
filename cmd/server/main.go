// main wires high-level dependencies, runs the portal lifecycle, and keeps
// the server loop small. Business logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"portal-mailer/internal/mailer"
	"portal-mailer/internal/platform/config"
	"portal-mailer/internal/platform/httpserver"
	"portal-mailer/internal/platform/logger"
	"portal-mailer/internal/platform/metrics"
	"portal-mailer/internal/portal"
	"portal-mailer/internal/smtp"
	httptransport "portal-mailer/internal/transport/http"
)

const initTimeout = 60 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Development())
	m := metrics.New()

	portalClient, err := portal.New(cfg.APIBaseURL, cfg.APITimeout, portal.WithLogger(log))
	if err != nil {
		log.Error("portal client setup failed", "error", err.Error())
		os.Exit(1)
	}

	composer, err := mailer.NewComposer(portalClient, mailer.WithComposerLogger(log))
	if err != nil {
		log.Error("composer setup failed", "error", err.Error())
		os.Exit(1)
	}

	sender := smtp.New(cfg.SMTP, smtp.WithLogger(log))

	service, err := mailer.New(portalClient, composer, sender, cfg.MyURL,
		mailer.WithLogger(log),
		mailer.WithMetrics(m),
	)
	if err != nil {
		log.Error("mailer service setup failed", "error", err.Error())
		os.Exit(1)
	}

	handler := httptransport.New(service, log, cfg.Development(), pingURL(cfg.MyURL))
	router := httptransport.NewRouter(handler, log)
	srv := httpserver.New(cfg.Addr, router)

	// Listen before init so /ping can report "initializing" while the
	// portal API comes up.
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting portal-mailer", "addr", cfg.Addr, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	initCtx, cancel := context.WithTimeout(context.Background(), initTimeout)
	err = service.Init(initCtx)
	cancel()
	if err != nil {
		log.Error("lifecycle init failed", "error", err.Error())
		shutdown(srv, log)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	deinitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := service.Deinit(deinitCtx); err != nil {
		// Best effort: the portal drops dead listeners on its own.
		log.Error("listener deregistration failed", "error", err.Error())
	}
	cancel()

	shutdown(srv, log)
}

func shutdown(srv *http.Server, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
}

func pingURL(myURL string) string {
	if !strings.HasSuffix(myURL, "/") {
		myURL += "/"
	}
	return myURL + "ping"
}
