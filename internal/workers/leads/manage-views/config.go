package manageviews

import (
	"time"

	"lead-workers/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	ViewNamespace string
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:       30 * time.Second,
		ViewNamespace: cfg.Leads.ViewNamespace,
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
