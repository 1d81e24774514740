package phonelookup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eflyt-phone-lookup/internal/common/config"
	apperrors "eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/common/validation"
	"eflyt-phone-lookup/internal/harness"
	"eflyt-phone-lookup/internal/pipeline"
)

// ==========================
// Mock Implementations
// ==========================

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunWithLimit(ctx context.Context, maxRecords int) (*harness.Result, error) {
	args := m.Called(ctx, maxRecords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*harness.Result), args.Error(1)
}

type MockService struct {
	mock.Mock
}

func (m *MockService) Execute(ctx context.Context, input *Input) (*Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Output), args.Error(1)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "eflyt-phone-lookup-process",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_PhoneLookup",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createValidConfig() *Config {
	return &Config{
		Enabled:           true,
		TaskType:          TaskType,
		MaxJobsActive:     1,
		Timeout:           10 * time.Minute,
		DefaultMaxRecords: 100,
	}
}

func createTestHandler(t *testing.T, runner Runner) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: createValidConfig(),
		Runner:       runner,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func completedResult() *harness.Result {
	return &harness.Result{
		RunID:     "run-1",
		Status:    harness.StatusCompleted,
		Requester: "anna@aarhus.dk",
		Attempts:  1,
		Summary:   pipeline.Summary{Processed: 3, Found: 1, NotFound: 1, Failed: 1},
	}
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name: "valid configuration",
			opts: HandlerOptions{CustomConfig: createValidConfig(), Runner: new(MockRunner)},
		},
		{
			name: "defaults from app config",
			opts: HandlerOptions{AppConfig: &config.Config{}, Runner: new(MockRunner)},
		},
		{
			name:    "missing runner",
			opts:    HandlerOptions{CustomConfig: createValidConfig()},
			wantErr: "runner is required",
		},
		{
			name: "parallel jobs rejected",
			opts: HandlerOptions{
				CustomConfig: &Config{TaskType: TaskType, MaxJobsActive: 2, Timeout: time.Minute},
				Runner:       new(MockRunner),
			},
			wantErr: "max_jobs_active must be 1",
		},
		{
			name: "zero timeout",
			opts: HandlerOptions{
				CustomConfig: &Config{TaskType: TaskType, MaxJobsActive: 1},
				Runner:       new(MockRunner),
			},
			wantErr: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = logger.NewTestLogger(t)
			h, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TaskType, h.GetTaskType())
			assert.True(t, h.IsEnabled())
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		Robot:   config.RobotConfig{MaxTaskCount: 25},
		Camunda: config.CamundaConfig{TaskType: "eflyt-phone-lookup-test", MaxJobsActive: 1, Timeout: 600000},
	}

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.Equal(t, "eflyt-phone-lookup-test", cfg.TaskType)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.Equal(t, 25, cfg.DefaultMaxRecords)

	custom := createValidConfig()
	assert.Same(t, custom, createConfigFromAppConfig(appCfg, custom))
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, new(MockRunner))

	tests := []struct {
		name      string
		variables map[string]interface{}
		want      *Input
		wantCode  apperrors.ErrorCode
	}{
		{
			name:      "no variables",
			variables: map[string]interface{}{},
			want:      &Input{},
		},
		{
			name:      "explicit limit",
			variables: map[string]interface{}{"maxRecords": 10},
			want:      &Input{MaxRecords: 10},
		},
		{
			name:      "zero limit",
			variables: map[string]interface{}{"maxRecords": 0},
			wantCode:  apperrors.ErrCodeValidationFailed,
		},
		{
			name:      "string limit",
			variables: map[string]interface{}{"maxRecords": "ten"},
			wantCode:  apperrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input)
		})
	}
}

func TestHandler_ParseInput_Malformed(t *testing.T) {
	h := createTestHandler(t, new(MockRunner))
	job := createMockJob(1, nil)
	job.Variables = "{not json"

	_, err := h.parseInput(job)
	assert.Equal(t, apperrors.ErrCodeInputParsing, apperrors.CodeOf(err))
}

// ==========================
// Execution Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	svc := new(MockService)
	h := createTestHandler(t, new(MockRunner))
	h.service = svc

	want := &Output{Status: "completed", RunID: "run-1", Processed: 2}
	svc.On("Execute", mock.Anything, &Input{MaxRecords: 2}).Return(want, nil).Once()

	got, err := h.Execute(context.Background(), &Input{MaxRecords: 2})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	svc.AssertExpectations(t)
}

func TestService_Execute(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		runner := new(MockRunner)
		runner.On("RunWithLimit", mock.Anything, 100).Return(completedResult(), nil).Once()

		svc := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Runner: runner}, createValidConfig())
		out, err := svc.Execute(context.Background(), &Input{})
		require.NoError(t, err)

		assert.Equal(t, &Output{
			Status:    "completed",
			RunID:     "run-1",
			Requester: "anna@aarhus.dk",
			Attempts:  1,
			Processed: 3,
			Found:     1,
			NotFound:  1,
			Failed:    1,
		}, out)
		runner.AssertExpectations(t)
	})

	t.Run("job limit", func(t *testing.T) {
		runner := new(MockRunner)
		runner.On("RunWithLimit", mock.Anything, 5).Return(completedResult(), nil).Once()

		svc := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Runner: runner}, createValidConfig())
		_, err := svc.Execute(context.Background(), &Input{MaxRecords: 5})
		require.NoError(t, err)
		runner.AssertExpectations(t)
	})

	t.Run("run error passes through", func(t *testing.T) {
		runErr := apperrors.NewTooManyFailuresError(3, errors.New("chrome crashed"))
		runner := new(MockRunner)
		runner.On("RunWithLimit", mock.Anything, 100).Return(nil, runErr)

		svc := NewService(ServiceDependencies{Logger: logger.NewNoOpLogger(), Runner: runner}, createValidConfig())
		_, err := svc.Execute(context.Background(), &Input{})
		assert.Same(t, runErr, err)
	})
}

// ==========================
// Output Tests
// ==========================

func TestOutputVariables_MatchSchema(t *testing.T) {
	out := outputFrom(completedResult())
	vars := outputVariables(out)

	// Round-trip through JSON as the engine would.
	raw, err := json.Marshal(vars)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	result := validation.ValidateInput(decoded, GetOutputSchema())
	assert.True(t, result.Valid, result.GetErrorMessages())
	assert.Equal(t, "anna@aarhus.dk", decoded["lookupRequester"])

	noWork := outputVariables(&Output{Status: "no_work", RunID: "run-2"})
	assert.NotContains(t, noWork, "lookupRequester")
}

func TestHandler_HealthCheckWithoutCamunda(t *testing.T) {
	h := createTestHandler(t, new(MockRunner))
	assert.Error(t, h.HealthCheck(context.Background()))
	assert.Error(t, h.Register())
}
