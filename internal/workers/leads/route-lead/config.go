// internal/workers/leads/route-lead/config.go
package routelead

import (
	"time"

	"lead-workers/internal/common/config"
)

type Config struct {
	Timeout           time.Duration
	PersistAssignment bool
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:           30 * time.Second,
		PersistAssignment: cfg.Leads.PersistAssignment,
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
