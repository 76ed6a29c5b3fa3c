// internal/workers/leads/filter-leads/config.go
package filterleads

import (
	"time"

	"lead-workers/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	ViewNamespace string
	// Source and Index label lead source errors.
	Source string
	Index  string
	// FetchLimit caps the leads read from the source per job.
	FetchLimit int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:       30 * time.Second,
		ViewNamespace: cfg.Leads.ViewNamespace,
		Source:        cfg.Leads.Source,
		Index:         cfg.Leads.Index,
		FetchLimit:    cfg.Leads.FetchLimit,
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
