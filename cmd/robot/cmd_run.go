package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"eflyt-phone-lookup/internal/common/metrics"
)

var runMaxRecords int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Handle the oldest request in the mailbox and exit",
	Long: `Handles one request: reads the oldest message in the source folder, looks up
every (case, national ID) pair in eFlyt, mails the report to the requester and
removes the message. Exits non-zero when the run fails.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxRecords, "max-records", 0, "Records to process (default: robot.max_task_count)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}
	log := newLogger(cfg).Named("run")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := buildRobot(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer r.Close(context.Background())

	limit := runMaxRecords
	if limit <= 0 {
		limit = cfg.Robot.MaxTaskCount
	}

	res, runErr := r.harness.RunWithLimit(ctx, limit)

	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, prometheus.DefaultGatherer); err != nil {
		log.Warn("Failed to push metrics", map[string]interface{}{"error": err.Error()})
	}

	if runErr != nil {
		return runErr
	}
	log.Info("Run finished", map[string]interface{}{
		"runId":     res.RunID,
		"status":    string(res.Status),
		"attempts":  res.Attempts,
		"processed": res.Summary.Processed,
		"remaining": res.Summary.Remaining,
	})
	return nil
}
