package manageviews

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/leads/views"
	"lead-workers/internal/workers/leads/leadjob"
)

const (
	TaskType = "manage-views"
)

type Handler struct {
	config *Config
	store  views.KVStore
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, store views.KVStore, obs *observability.Observability, log logger.Logger) *Handler {
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
	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action == "" {
		action = ActionList
	}
	if err := validateInput(action, input); err != nil {
		return nil, err
	}

	namespace := leadjob.UserNamespace(h.config.ViewNamespace, input.UserID)
	registry := views.NewRegistry(h.store, h.logger, views.WithNamespace(namespace))

	// A write after a failed load would overwrite the stored custom views
	// with the empty fallback.
	if err := registry.Load(ctx); err != nil {
		return nil, leadjob.RegistryError("load", "", err)
	}

	var touched *views.View
	switch action {
	case ActionSelect:
		v, err := registry.Select(ctx, input.View)
		if err != nil {
			return nil, leadjob.RegistryError("select", input.View, err)
		}
		metrics.LeadViewsSelectedTotal.WithLabelValues(string(v.Kind)).Inc()
		touched = &v

	case ActionSave:
		v, err := registry.SaveCustom(ctx, input.View, *input.Descriptor)
		if err != nil {
			return nil, leadjob.RegistryError("save", input.View, err)
		}
		touched = &v

	case ActionDelete:
		if err := registry.DeleteCustom(ctx, input.View); err != nil {
			return nil, leadjob.RegistryError("delete", input.View, err)
		}
	}

	current := registry.Current()
	h.logger.Info("views managed", map[string]interface{}{
		"userId":      input.UserID,
		"action":      action,
		"view":        input.View,
		"currentView": current.Name,
	})

	return &Output{
		Action:      action,
		CurrentView: current.Name,
		SortBy:      registry.SortBy(),
		View:        touched,
		Views:       registry.Views(),
	}, nil
}

func validateInput(action string, input *Input) error {
	switch action {
	case ActionList:
		return nil
	case ActionSelect, ActionDelete:
		if input.View == "" {
			return errors.NewInvalidLeadInputError(action + " requires a view name")
		}
	case ActionSave:
		if input.View == "" {
			return errors.NewInvalidLeadInputError("save requires a view name")
		}
		if input.Descriptor == nil {
			return errors.NewInvalidLeadInputError("save requires a descriptor")
		}
	default:
		return errors.NewInvalidLeadInputError("unknown action: " + action)
	}
	return nil
}
