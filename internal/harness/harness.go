// Package harness runs the robot end to end and owns the retry policy.
package harness

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eflyt-phone-lookup/internal/common/config"
	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/common/metrics"
	"eflyt-phone-lookup/internal/common/observability"
	"eflyt-phone-lookup/internal/lookup"
	"eflyt-phone-lookup/internal/models"
	"eflyt-phone-lookup/internal/pipeline"
	"eflyt-phone-lookup/internal/report"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusNoWork    Status = "no_work"
	StatusFailed    Status = "failed"
)

type Ingestor interface {
	Ingest(ctx context.Context) (*models.WorkBatch, error)
}

type Processor interface {
	Run(ctx context.Context, batch *models.WorkBatch, client lookup.Client, maxRecords int) (pipeline.Summary, error)
}

type ReportWriter interface {
	Write(records []*models.WorkRecord) (*report.Report, error)
}

type Notifier interface {
	Notify(ctx context.Context, rep *report.Report, recipient string) error
}

// Acknowledger removes a handled request from the source.
type Acknowledger interface {
	Discard(ctx context.Context, handle models.SourceHandle) error
}

type Locker interface {
	Key() string
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type Dependencies struct {
	Ingestor  Ingestor
	Connector lookup.Connector
	Pipeline  Processor
	Writer    ReportWriter
	Notifier  Notifier
	Source    Acknowledger

	// NewLock builds the run lock for a run ID. Nil disables locking.
	NewLock       func(runID string) Locker
	Observability *observability.Observability
	Logger        logger.Logger
}

type Options struct {
	MaxRetryCount       int
	MaxTaskCount        int
	FailOnTooManyErrors bool
	RetryBackoff        time.Duration
}

func OptionsFrom(cfg config.RobotConfig) Options {
	return Options{
		MaxRetryCount:       cfg.MaxRetryCount,
		MaxTaskCount:        cfg.MaxTaskCount,
		FailOnTooManyErrors: cfg.FailOnTooManyErrors,
		RetryBackoff:        config.GetDuration(cfg.RetryBackoff),
	}
}

// Result describes one run. Summary and Report are from the successful
// attempt only.
type Result struct {
	RunID     string           `json:"runId"`
	Status    Status           `json:"status"`
	Requester string           `json:"requester,omitempty"`
	Attempts  int              `json:"attempts"`
	Errors    int              `json:"errors"`
	Summary   pipeline.Summary `json:"summary"`
	Report    *report.Report   `json:"-"`
}

type Harness struct {
	deps   Dependencies
	opts   Options
	logger logger.Logger
}

func New(deps Dependencies, opts Options) *Harness {
	if opts.MaxRetryCount <= 0 {
		opts.MaxRetryCount = 1
	}
	return &Harness{deps: deps, opts: opts, logger: deps.Logger.Named("harness")}
}

// Run processes at most the configured number of records.
func (h *Harness) Run(ctx context.Context) (*Result, error) {
	return h.RunWithLimit(ctx, h.opts.MaxTaskCount)
}

// RunWithLimit runs up to MaxRetryCount attempts. A business error ends the
// run at once. Other errors are counted and the next attempt starts from a
// fresh ingest. When every attempt fails the run returns TOO_MANY_FAILURES if
// FailOnTooManyErrors is set.
func (h *Harness) RunWithLimit(ctx context.Context, maxRecords int) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Status: StatusFailed}
	log := h.logger.WithFields(map[string]interface{}{"runId": res.RunID})

	defer func() {
		status := string(res.Status)
		metrics.RunDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
		h.deps.Observability.RecordRun(ctx, status, res.Attempts, time.Since(start))
	}()

	if h.deps.NewLock != nil {
		lock := h.deps.NewLock(res.RunID)
		held, lockErr := lock.Acquire(ctx)
		if lockErr != nil {
			return res, errors.NewExternalServiceError("redis", lockErr)
		}
		if !held {
			log.Warn("Run lock held elsewhere, not starting", map[string]interface{}{"lock": lock.Key()})
			return res, errors.NewRunInProgressError(lock.Key())
		}
		defer func() {
			// Release even if ctx was cancelled.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if relErr := lock.Release(releaseCtx); relErr != nil {
				log.WithError(relErr).Warn("Failed to release run lock", nil)
			}
		}()
	}

	var lastErr error
	for res.Attempts < h.opts.MaxRetryCount {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.Attempts++
		attemptLog := log.WithFields(map[string]interface{}{"attempt": res.Attempts})

		lastErr = h.attempt(ctx, res, maxRecords, attemptLog)
		if lastErr == nil {
			metrics.RunAttempts.WithLabelValues("success").Inc()
			attemptLog.Info("Run finished", map[string]interface{}{
				"status":    string(res.Status),
				"requester": res.Requester,
				"processed": res.Summary.Processed,
			})
			return res, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.RunAttempts.WithLabelValues("cancelled").Inc()
			return res, ctxErr
		}

		if errors.IsBusiness(lastErr) {
			metrics.RunAttempts.WithLabelValues("business_error").Inc()
			attemptLog.WithError(lastErr).Error("Business error, stopping run", map[string]interface{}{
				"code": string(errors.CodeOf(lastErr)),
			})
			return res, lastErr
		}

		res.Errors++
		metrics.RunAttempts.WithLabelValues("error").Inc()
		attemptLog.WithError(lastErr).Warn("Attempt failed", map[string]interface{}{
			"code":       string(errors.CodeOf(lastErr)),
			"errorCount": res.Errors,
			"maxRetries": h.opts.MaxRetryCount,
		})

		if res.Attempts < h.opts.MaxRetryCount && h.opts.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(h.opts.RetryBackoff * time.Duration(res.Attempts)):
			}
		}
	}

	log.Error("Process failed too many times", map[string]interface{}{
		"attempts": res.Attempts,
		"lastCode": string(errors.CodeOf(lastErr)),
	})
	if h.opts.FailOnTooManyErrors {
		return res, errors.NewTooManyFailuresError(res.Attempts, lastErr)
	}
	return res, nil
}

// attempt is one pass through ingest, lookup, report, notify and discard.
// Records of a failed attempt are dropped with it.
func (h *Harness) attempt(ctx context.Context, res *Result, maxRecords int, log logger.Logger) error {
	batch, err := h.deps.Ingestor.Ingest(ctx)
	if err != nil {
		return err
	}
	if batch == nil {
		res.Status = StatusNoWork
		return nil
	}
	res.Requester = batch.Requester
	log.Info("Batch ingested", map[string]interface{}{
		"records":   batch.Records.Len(),
		"requester": batch.Requester,
	})

	session, err := h.deps.Connector.Connect(ctx)
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return err
		}
		return errors.NewLookupSessionError(err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close lookup session", nil)
		}
	}()

	summary, err := h.deps.Pipeline.Run(ctx, batch, session, maxRecords)
	if err != nil {
		return err
	}

	processed := batch.Records.Processed()
	rep, err := h.deps.Writer.Write(processed)
	if err != nil {
		return err
	}

	if err := h.deps.Notifier.Notify(ctx, rep, batch.Requester); err != nil {
		return err
	}

	if err := h.deps.Source.Discard(ctx, batch.SourceHandle); err != nil {
		return errors.NewSourceAckError(err)
	}

	for outcome, n := range batch.Records.CountByOutcome() {
		if outcome != models.OutcomePending {
			h.deps.Observability.RecordRecords(ctx, string(outcome), n)
		}
	}

	res.Status = StatusCompleted
	res.Summary = summary
	res.Report = rep
	return nil
}
