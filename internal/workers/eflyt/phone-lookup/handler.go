package phonelookup

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"eflyt-phone-lookup/internal/common/camunda"
	"eflyt-phone-lookup/internal/common/config"
	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/common/metrics"
	"eflyt-phone-lookup/internal/common/validation"
)

const TaskType = "eflyt-phone-lookup"

type executor interface {
	Execute(ctx context.Context, input *Input) (*Output, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	service      executor
	errorHandler *errors.ErrorHandler
	jobWorker    worker.JobWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Runner       Runner
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("invalid configuration for %s: runner is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": workerConfig.TaskType})

	return &Handler{
		config:       workerConfig,
		logger:       log,
		camunda:      opts.Camunda,
		service:      NewService(ServiceDependencies{Logger: log, Runner: opts.Runner}, workerConfig),
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(h.config.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(h.config.TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing phone lookup job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"retries":            job.GetRetries(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(h.config.TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(h.config.TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewValidationError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	input := &Input{}
	if v, ok := variables["maxRecords"].(float64); ok {
		input.MaxRecords = int(v)
	}
	return input, nil
}

func outputVariables(output *Output) map[string]interface{} {
	variables := map[string]interface{}{
		"lookupStatus":    output.Status,
		"lookupRunId":     output.RunID,
		"lookupAttempts":  output.Attempts,
		"lookupProcessed": output.Processed,
		"lookupFound":     output.Found,
		"lookupNotFound":  output.NotFound,
		"lookupFailed":    output.Failed,
		"lookupRemaining": output.Remaining,
	}
	if output.Requester != "" {
		variables["lookupRequester"] = output.Requester
	}
	return variables
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(outputVariables(output))
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Phone lookup job completed", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"status":    output.Status,
		"processed": output.Processed,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(h.config.TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("register %s: no camunda client", h.config.TaskType)
	}

	h.jobWorker = camunda.OpenWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:       h.config.TaskType,
		MaxJobsActive:  h.config.MaxJobsActive,
		Timeout:        h.config.Timeout,
		FetchVariables: []string{"maxRecords"},
	}, h)

	h.logger.Info("Phone lookup worker registered with Camunda", map[string]interface{}{
		"taskType":      h.config.TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
	})
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", nil)
		h.jobWorker.Close()
		h.jobWorker.AwaitClose()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return fmt.Errorf("no camunda client")
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return h.config.TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if appConfig.Camunda.TaskType != "" {
			cfg.TaskType = appConfig.Camunda.TaskType
		}
		if appConfig.Camunda.MaxJobsActive > 0 {
			cfg.MaxJobsActive = appConfig.Camunda.MaxJobsActive
		}
		if appConfig.Camunda.Timeout > 0 {
			cfg.Timeout = config.GetDuration(appConfig.Camunda.Timeout)
		}
		if appConfig.Robot.MaxTaskCount > 0 {
			cfg.DefaultMaxRecords = appConfig.Robot.MaxTaskCount
		}
	}
	return cfg
}

// Execute runs the lookup directly, without a job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
