// internal/workers/leads/filter-leads/handler.go
package filterleads

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/leads/pipeline"
	"lead-workers/internal/leads/repository"
	"lead-workers/internal/leads/views"
	"lead-workers/internal/models"
	"lead-workers/internal/workers/leads/leadjob"
)

const (
	TaskType = "filter-leads"
)

type Handler struct {
	config *Config
	store  views.KVStore
	source repository.LeadSource
	runner *camunda.JobRunner
	logger logger.Logger
}

// NewHandler builds the handler. source may be nil when every job carries
// its leads inline.
func NewHandler(config *Config, store views.KVStore, source repository.LeadSource, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		source: source,
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
	namespace := leadjob.UserNamespace(h.config.ViewNamespace, input.UserID)
	registry := views.NewRegistry(h.store, h.logger, views.WithNamespace(namespace))
	if err := registry.Load(ctx); err != nil {
		// Load leaves the registry on the default view.
		h.logger.Warn("view state unavailable, filtering with defaults", map[string]interface{}{
			"namespace": namespace,
			"error":     err,
		})
	}

	view, err := h.resolveView(registry, input.View)
	if err != nil {
		return nil, err
	}

	sortBy, err := h.resolveSort(registry, view, input)
	if err != nil {
		return nil, err
	}

	all, truncated, err := h.loadLeads(ctx, input)
	if err != nil {
		return nil, err
	}

	now := registry.Now()
	if input.Now != nil {
		now = *input.Now
	}

	filtered := pipeline.Apply(all, pipeline.Query{
		View:         view,
		Search:       input.Search,
		StatusFilter: input.StatusFilter,
		ScoreRange:   input.ScoreRange,
		SortBy:       sortBy,
		Now:          now,
	})
	metrics.LeadPipelineResults.WithLabelValues(viewLabel(view)).Observe(float64(len(filtered)))

	page := pipeline.Paginate(filtered, input.Page, input.PageSize)

	h.logger.Info("leads filtered", map[string]interface{}{
		"userId":  input.UserID,
		"view":    view.Name,
		"sortBy":  sortBy,
		"total":   page.Total,
		"page":    page.Page,
		"fetched": len(all),
	})
	if truncated {
		h.logger.Warn("lead source truncated at fetch limit", map[string]interface{}{
			"source":     h.config.Source,
			"fetchLimit": len(all),
		})
	}

	return &Output{
		View:     view.Name,
		ViewKind: string(view.Kind),
		SortBy:    sortBy,
		Truncated: truncated,
		Page:      page,
	}, nil
}

func (h *Handler) resolveView(registry *views.Registry, name string) (views.View, error) {
	if name == "" {
		return registry.Current(), nil
	}
	view, ok := registry.Lookup(name)
	if !ok {
		return views.View{}, errors.NewViewNotFoundError(name)
	}
	return view, nil
}

// resolveSort prefers the explicit sort, then the explicit view's default,
// then the registry's active sort.
func (h *Handler) resolveSort(registry *views.Registry, view views.View, input *Input) (models.SortOption, error) {
	switch {
	case input.SortBy != "":
		if err := registry.SetSort(input.SortBy); err != nil {
			return "", leadjob.RegistryError("sort", view.Name, err)
		}
		return input.SortBy, nil
	case input.View != "":
		return view.Sort, nil
	default:
		return registry.SortBy(), nil
	}
}

func (h *Handler) loadLeads(ctx context.Context, input *Input) ([]models.Lead, bool, error) {
	if input.Leads != nil {
		return input.Leads, false, nil
	}
	if h.source == nil {
		return nil, false, errors.NewInvalidLeadInputError("leads are required when no lead source is configured")
	}

	start := time.Now()
	list, truncated, err := repository.FetchAll(ctx, h.source, repository.ListFilter{
		Status: input.StatusFilter,
	}, h.config.FetchLimit)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, false, errors.NewLeadSourceTimeoutError(h.config.Source)
		}
		return nil, false, leadjob.SourceError(h.config.Source, h.config.Index, err)
	}

	h.logger.Debug("leads fetched", map[string]interface{}{
		"source":     h.config.Source,
		"count":      len(list),
		"truncated":  truncated,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return list, truncated, nil
}

// viewLabel folds every custom view into one label.
func viewLabel(v views.View) string {
	if v.Kind == views.KindCustom {
		return string(views.KindCustom)
	}
	return v.Name
}
