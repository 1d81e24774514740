package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eflyt-phone-lookup/internal/common/camunda"
	phonelookup "eflyt-phone-lookup/internal/workers/eflyt/phone-lookup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a Zeebe job worker",
	Long: `Registers the eflyt-phone-lookup job worker with the Zeebe gateway. Each job
performs one run. Health and metrics are served on metrics.listen_address.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForWorker(); err != nil {
		return err
	}
	log := newLogger(cfg).Named("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := buildRobot(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer r.Close(context.Background())

	zc, err := camunda.NewClient(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
	if err != nil {
		return err
	}
	defer zc.Close()

	handler, err := phonelookup.NewHandler(phonelookup.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zc,
		Runner:    r.harness,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	if err := handler.Register(); err != nil {
		return err
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddress,
		Handler:           newRouter(handler.HealthCheck),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, stopping worker", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping health server", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
