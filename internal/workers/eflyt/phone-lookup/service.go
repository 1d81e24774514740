package phonelookup

import (
	"context"

	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/harness"
)

type Service struct {
	config *Config
	logger logger.Logger
	runner Runner
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		runner: deps.Runner,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	maxRecords := input.MaxRecords
	if maxRecords <= 0 {
		maxRecords = s.config.DefaultMaxRecords
	}

	s.logger.Info("Starting phone lookup run", map[string]interface{}{
		"maxRecords": maxRecords,
	})

	res, err := s.runner.RunWithLimit(ctx, maxRecords)
	if err != nil {
		return nil, err
	}
	return outputFrom(res), nil
}

func outputFrom(res *harness.Result) *Output {
	return &Output{
		Status:    string(res.Status),
		RunID:     res.RunID,
		Requester: res.Requester,
		Attempts:  res.Attempts,
		Processed: res.Summary.Processed,
		Found:     res.Summary.Found,
		NotFound:  res.Summary.NotFound,
		Failed:    res.Summary.Failed,
		Remaining: res.Summary.Remaining,
	}
}
