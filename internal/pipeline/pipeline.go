// Package pipeline resolves phone numbers for the records of a batch.
package pipeline

import (
	"context"
	"errors"
	"time"

	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/common/metrics"
	"eflyt-phone-lookup/internal/lookup"
	"eflyt-phone-lookup/internal/models"
)

// Summary counts what one Run did.
type Summary struct {
	Processed int `json:"processed"`
	Found     int `json:"found"`
	NotFound  int `json:"notFound"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Remaining int `json:"remaining"`
}

type Pipeline struct {
	logger logger.Logger
}

func New(log logger.Logger) *Pipeline {
	return &Pipeline{logger: log.Named("pipeline")}
}

// Run looks up the unprocessed records of batch in order, one at a time,
// and stops after maxRecords have been processed (maxRecords <= 0 means no
// limit). Lookup faults are recorded on the row and do not stop the run.
// Only cancellation of ctx is returned as an error.
func (p *Pipeline) Run(ctx context.Context, batch *models.WorkBatch, client lookup.Client, maxRecords int) (Summary, error) {
	var sum Summary

	for _, record := range batch.Records.All() {
		if record.Processed() {
			sum.Skipped++
			continue
		}
		if maxRecords > 0 && sum.Processed >= maxRecords {
			sum.Remaining++
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if err := p.process(ctx, client, record); err != nil {
			return sum, err
		}

		sum.Processed++
		switch record.Outcome {
		case models.OutcomeFound:
			sum.Found++
		case models.OutcomeNotFound:
			sum.NotFound++
		case models.OutcomeFailed:
			sum.Failed++
		}
		metrics.RecordsProcessed.WithLabelValues(string(record.Outcome)).Inc()
	}

	if sum.Remaining > 0 {
		p.logger.Warn("Record limit reached, remaining records are not in this report", map[string]interface{}{
			"maxRecords": maxRecords,
			"remaining":  sum.Remaining,
		})
	}

	p.logger.Info("Batch processed", map[string]interface{}{
		"processed": sum.Processed,
		"found":     sum.Found,
		"notFound":  sum.NotFound,
		"failed":    sum.Failed,
		"skipped":   sum.Skipped,
	})
	return sum, nil
}

func (p *Pipeline) process(ctx context.Context, client lookup.Client, record *models.WorkRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordLookupDuration.Observe(time.Since(start).Seconds())
	}()

	log := p.logger.WithFields(map[string]interface{}{"caseId": record.CaseID})

	handle, err := client.OpenCase(ctx, record.CaseID)
	if err != nil {
		return p.fail(ctx, log, record, err)
	}

	result, err := client.FindPersonPhone(ctx, handle, record.NationalID)
	if err != nil {
		return p.fail(ctx, log, record, err)
	}

	if !result.IsFound() {
		record.MarkNotFound()
		log.Info("No phone number found", nil)
		return nil
	}

	record.MarkFound(result.Numbers())
	log.Debug("Phone numbers found", map[string]interface{}{"count": len(record.PhoneNumbers)})
	return nil
}

func (p *Pipeline) fail(ctx context.Context, log logger.Logger, record *models.WorkRecord, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	reason := err.Error()
	if errors.Is(err, lookup.ErrCaseNotFound) {
		reason = lookup.ErrCaseNotFound.Error()
	}
	record.MarkFailed(reason)
	log.WithError(err).Warn("Lookup failed, continuing with next record", nil)
	return nil
}
