// internal/workers/leads/route-lead/handler.go
package routelead

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/leads"
	"lead-workers/internal/models"
	"lead-workers/internal/workers/leads/leadjob"
)

const (
	TaskType = "route-lead"
)

// Store is the part of the lead repository this worker touches. It may be
// nil, in which case the job must carry the lead inline.
type Store interface {
	GetLead(ctx context.Context, id models.LeadID) (*models.Lead, error)
	AssignOwner(ctx context.Context, id models.LeadID, ownerID string) error
}

type Handler struct {
	config *Config
	store  Store
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, store Store, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	input := &Input{}
	h.runner.Run(client, job, input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	lead, err := leadjob.ResolveLead(ctx, h.getter(), input.Lead, input.LeadID)
	if err != nil {
		return nil, err
	}

	assignment := leads.Route(*lead)
	metrics.LeadRoutingTotal.WithLabelValues(assignment.OwnerID).Inc()

	output := &Output{
		LeadID:          lead.ID,
		OwnerID:         assignment.OwnerID,
		Region:          assignment.Region,
		PreviousOwnerID: lead.OwnerID,
	}

	if h.shouldPersist(lead, assignment.OwnerID) {
		if err := h.store.AssignOwner(ctx, lead.ID, assignment.OwnerID); err != nil {
			return nil, leadjob.RepositoryError(lead.ID, err)
		}
		output.Assigned = true
	}

	h.logger.Info("lead routed", map[string]interface{}{
		"leadId":   lead.ID,
		"ownerId":  assignment.OwnerID,
		"region":   assignment.Region,
		"assigned": output.Assigned,
	})

	return output, nil
}

func (h *Handler) shouldPersist(lead *models.Lead, ownerID string) bool {
	return h.config.PersistAssignment && h.store != nil && lead.ID != "" && lead.OwnerID != ownerID
}

// getter avoids handing a typed nil Store to ResolveLead.
func (h *Handler) getter() leadjob.LeadGetter {
	if h.store == nil {
		return nil
	}
	return h.store
}
