// internal/workers/leads/notify-lead-owner/config.go
package notifyleadowner

import (
	"strings"
	"time"

	"lead-workers/internal/common/config"
)

type Config struct {
	Timeout   time.Duration
	TopicARN  string
	FromEmail string
	// OwnerEmails is keyed by lowercased owner id.
	OwnerEmails map[string]string
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:     30 * time.Second,
		TopicARN:    cfg.Notifications.TopicARN,
		FromEmail:   cfg.Notifications.FromEmail,
		OwnerEmails: make(map[string]string, len(cfg.Notifications.OwnerEmails)),
	}
	for owner, email := range cfg.Notifications.OwnerEmails {
		c.OwnerEmails[strings.ToLower(owner)] = email
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}

// OwnerEmail returns the configured address for an owner.
func (c *Config) OwnerEmail(ownerID string) (string, bool) {
	email, ok := c.OwnerEmails[strings.ToLower(ownerID)]
	return email, ok && email != ""
}
