package checkautoconvert

import (
	"context"
	stderrors "errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/common/zoho"
	"lead-workers/internal/leads"
	"lead-workers/internal/models"
	"lead-workers/internal/workers/leads/leadjob"
)

const (
	TaskType = "check-auto-convert"
)

// Converter converts a lead in the CRM.
type Converter interface {
	ConvertLead(ctx context.Context, leadID string, opts zoho.ConvertOptions) (*zoho.ConversionResult, error)
}

// Store loads leads and records the converted status. It may be nil.
type Store interface {
	GetLead(ctx context.Context, id models.LeadID) (*models.Lead, error)
	UpdateStatus(ctx context.Context, id models.LeadID, status models.LeadStatus) error
}

type Handler struct {
	config    *Config
	store     Store
	converter Converter
	runner    *camunda.JobRunner
	logger    logger.Logger
}

func NewHandler(config *Config, store Store, converter Converter, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     store,
		converter: converter,
		runner:    camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
		logger:    log,
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
	var getter leadjob.LeadGetter
	if h.store != nil {
		getter = h.store
	}
	lead, err := leadjob.ResolveLead(ctx, getter, input.Lead, input.LeadID)
	if err != nil {
		return nil, err
	}
	if err := lead.Validate(); err != nil {
		h.logger.Warn("lead data out of shape, applying rule as-is", map[string]interface{}{
			"leadId": lead.ID,
			"error":  err,
		})
	}

	output := &Output{
		LeadID:        lead.ID,
		Score:         lead.ScoreValue(),
		Threshold:     leads.AutoConvertThreshold,
		ShouldConvert: leads.ShouldAutoConvert(*lead),
	}

	switch {
	case lead.Status == models.LeadStatusConverted:
		output.Outcome = metrics.OutcomeAlreadyFinal
	case !output.ShouldConvert:
		output.Outcome = metrics.OutcomeNotEligible
	case !h.config.AutoConvert || h.converter == nil:
		output.Outcome = metrics.OutcomeEligible
	default:
		if err := h.convert(ctx, lead, input, output); err != nil {
			return nil, err
		}
		output.Outcome = metrics.OutcomeConverted
	}

	metrics.LeadAutoConvertTotal.WithLabelValues(output.Outcome).Inc()
	h.logger.Info("auto-convert checked", map[string]interface{}{
		"leadId":  lead.ID,
		"score":   output.Score,
		"outcome": output.Outcome,
	})

	return output, nil
}

func (h *Handler) convert(ctx context.Context, lead *models.Lead, input *Input, output *Output) error {
	done := input.CRMConversion
	if done == nil {
		crmLeadID := input.CRMLeadID
		if crmLeadID == "" {
			crmLeadID = lead.ID.String()
		}

		result, err := h.converter.ConvertLead(ctx, crmLeadID, zoho.ConvertOptions{
			NotifyLeadOwner: h.config.NotifyLeadOwner,
			AssignTo:        lead.OwnerID,
		})
		if err != nil {
			if stderrors.Is(err, zoho.ErrLeadNotFound) {
				return errors.NewLeadNotFoundError(crmLeadID)
			}
			return errors.NewCRMConversionFailedError(crmLeadID, err)
		}
		done = &CRMConversion{ContactID: result.ContactID, AccountID: result.AccountID, DealID: result.DealID}
	} else {
		h.logger.Info("CRM conversion already recorded, writing status only", map[string]interface{}{
			"leadId":       lead.ID,
			"crmContactId": done.ContactID,
		})
	}

	output.Converted = true
	output.CRMContactID = done.ContactID
	output.CRMAccountID = done.AccountID
	output.CRMDealID = done.DealID

	if h.store == nil {
		return nil
	}
	if err := h.store.UpdateStatus(ctx, lead.ID, models.LeadStatusConverted); err != nil {
		h.logger.Error("converted lead status not recorded", map[string]interface{}{
			"leadId":       lead.ID,
			"crmContactId": done.ContactID,
			"error":        err,
		})
		// The CRM records already exist; the retry must not convert again.
		mapped := leadjob.RepositoryError(lead.ID, err)
		if stdErr, ok := errors.AsStandardError(mapped); ok {
			stdErr.WithMetadata("crmConversion", done)
		}
		return mapped
	}
	return nil
}
