package phonelookup

import (
	"context"

	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/harness"
)

type Input struct {
	// MaxRecords caps the records processed by this run. Zero uses the
	// configured default.
	MaxRecords int `json:"maxRecords,omitempty"`
}

type Output struct {
	Status    string `json:"status"`
	RunID     string `json:"runId"`
	Requester string `json:"requester,omitempty"`
	Attempts  int    `json:"attempts"`
	Processed int    `json:"processed"`
	Found     int    `json:"found"`
	NotFound  int    `json:"notFound"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
}

// Runner is satisfied by *harness.Harness.
type Runner interface {
	RunWithLimit(ctx context.Context, maxRecords int) (*harness.Result, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	Runner Runner
}
