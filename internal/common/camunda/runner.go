package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
	"lead-workers/internal/common/observability"
)

// ExecuteFunc runs a job's business logic against decoded input.
type ExecuteFunc func(ctx context.Context) (interface{}, error)

// JobRunner is the shared activation path of every lead worker: decode the
// variables, run the handler under a timeout, then complete the job or hand
// the error to the ErrorHandler.
type JobRunner struct {
	taskType string
	timeout  time.Duration
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		taskType: taskType,
		timeout:  timeout,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
	}
}

// Run decodes job.Variables into input and reports the result of execute to
// the broker.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, input interface{}, execute ExecuteFunc) {
	start := time.Now()
	runID := uuid.NewString()

	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := r.obs.StartJobSpan(ctx, r.taskType, job.Key, runID)
	defer span.End()

	log := r.logger.WithFields(map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
		"runId":              runID,
	})
	log.Debug("Job activated", nil)

	output, err := r.Process(ctx, job.Variables, input, execute)
	if err == nil {
		err = r.complete(ctx, client, job, output)
	}

	status := "completed"
	if err != nil {
		status = "failed"
		stdErr := r.errors.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(stdErr.Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Code))
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
		log.Info("Job completed", map[string]interface{}{
			"durationMs": time.Since(start).Milliseconds(),
		})
	}

	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(start).Seconds())
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, time.Since(start), status)
}

// Process decodes variables into input and runs execute. It has no broker
// side effects. A panic in execute is returned as an internal error.
func (r *JobRunner) Process(ctx context.Context, variables string, input interface{}, execute ExecuteFunc) (output interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Job handler panicked", map[string]interface{}{"panic": fmt.Sprint(p)})
			output, err = nil, errors.NewInternalError(fmt.Errorf("handler panic: %v", p))
		}
	}()

	if variables == "" {
		variables = "{}"
	}
	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return nil, errors.NewInvalidLeadInputError("invalid job variables: " + err.Error())
	}

	output, err = execute(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			if _, ok := errors.AsStandardError(err); !ok {
				return nil, errors.NewLeadSourceTimeoutError(r.taskType)
			}
		}
		return nil, err
	}
	return output, nil
}

func (r *JobRunner) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return mapZeebeError(err, "complete job", 0)
	}
	return nil
}
