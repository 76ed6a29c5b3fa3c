package checkautoconvert

import (
	"time"

	"lead-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// AutoConvert enables the CRM conversion for eligible leads. When false
	// the worker only reports eligibility.
	AutoConvert bool
	// NotifyLeadOwner is passed through to the CRM conversion call.
	NotifyLeadOwner bool
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:         30 * time.Second,
		AutoConvert:     cfg.Leads.AutoConvert,
		NotifyLeadOwner: true,
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
