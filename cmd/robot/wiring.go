package main

import (
	"context"
	"fmt"

	"eflyt-phone-lookup/internal/common/auth"
	"eflyt-phone-lookup/internal/common/aws"
	"eflyt-phone-lookup/internal/common/config"
	"eflyt-phone-lookup/internal/common/database"
	"eflyt-phone-lookup/internal/common/graph"
	apphttp "eflyt-phone-lookup/internal/common/http"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/common/observability"
	"eflyt-phone-lookup/internal/harness"
	"eflyt-phone-lookup/internal/ingest"
	"eflyt-phone-lookup/internal/lookup/eflyt"
	"eflyt-phone-lookup/internal/notify"
	"eflyt-phone-lookup/internal/pipeline"
	"eflyt-phone-lookup/internal/report"
)

var newObservability = observability.New

// robot bundles the harness with the resources it owns.
type robot struct {
	harness *harness.Harness
	obs     *observability.Observability
	redis   *database.RedisClient
}

func (r *robot) Close(ctx context.Context) {
	if r.redis != nil {
		_ = r.redis.Close()
	}
	_ = r.obs.Shutdown(ctx)
}

func buildRobot(ctx context.Context, cfg *config.Config, log logger.Logger) (*robot, error) {
	ts, err := auth.NewTokenSource(ctx, auth.PasswordGrant{
		TenantID: cfg.Mailbox.TenantID,
		ClientID: cfg.Mailbox.ClientID,
		Username: cfg.Mailbox.Username,
		Password: cfg.Mailbox.Password,
		Scopes:   []string{auth.GraphScope},
	})
	if err != nil {
		return nil, fmt.Errorf("mailbox credentials: %w", err)
	}

	httpClient := apphttp.NewClient(config.GetDuration(cfg.Mailbox.Timeout), ts)
	mailbox := graph.NewMailbox(httpClient, cfg.Mailbox.BaseURL, cfg.Mailbox.User, cfg.Mailbox.SourceFolder, log)

	transport, err := newTransport(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	r := &robot{obs: newObservability(cfg.App.Name, log)}

	var newLock func(string) harness.Locker
	if cfg.Redis.Address != "" {
		r.redis = database.NewRedis(cfg.Redis)
		if err := r.redis.Ping(ctx); err != nil {
			r.Close(ctx)
			return nil, err
		}
		newLock = func(runID string) harness.Locker {
			return database.NewRunLock(r.redis.Client, cfg.Redis.LockKey, cfg.Robot.LockTTL(), runID)
		}
	}

	r.harness = harness.New(harness.Dependencies{
		Ingestor:      ingest.New(mailbox, ingest.Options{LegacyDelimited: cfg.Ingest.LegacyDelimited}, log),
		Connector:     eflyt.NewConnector(eflyt.ConfigFrom(cfg.Eflyt), log),
		Pipeline:      pipeline.New(log),
		Writer:        report.NewWriter(cfg.Report.Filename, cfg.Report.SheetName),
		Notifier:      notify.New(transport, notify.OptionsFrom(cfg.Notification), log),
		Source:        mailbox,
		NewLock:       newLock,
		Observability: r.obs,
		Logger:        log,
	}, harness.OptionsFrom(cfg.Robot))

	return r, nil
}

func newTransport(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Transport, error) {
	switch cfg.Notification.Transport {
	case "ses":
		client, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		return notify.NewSESTransport(client, log), nil
	case "", "smtp":
		return notify.NewSMTPTransport(cfg.SMTP), nil
	default:
		return nil, fmt.Errorf("unknown notification transport %q", cfg.Notification.Transport)
	}
}

func newLogger(cfg *config.Config) logger.Logger {
	var output []string
	if cfg.Logging.Output != "" {
		output = append(output, cfg.Logging.Output)
	}
	return logger.NewZapAdapter(logger.New(cfg.Logging.Level, cfg.Logging.Format, output...))
}
