package camunda

import (
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	// FetchVariables limits the variables sent with each job. Empty means all.
	FetchVariables []string
}

// OpenWorker starts polling for TaskType jobs.
func OpenWorker(client zbc.Client, opts WorkerOptions, handler JobHandler) worker.JobWorker {
	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(fmt.Sprintf("%s-worker", opts.TaskType))

	if len(opts.FetchVariables) > 0 {
		step = step.FetchVariables(opts.FetchVariables...)
	}
	return step.Open()
}
