// internal/workers/leads/notify-lead-owner/models.go
package notifyleadowner

import (
	"time"

	"lead-workers/internal/models"
)

// Event types
const (
	EventAssigned      = "assigned"
	EventAutoConverted = "auto_converted"
)

type Input struct {
	Event  string        `json:"event"`
	Lead   *models.Lead  `json:"lead,omitempty"`
	LeadID models.LeadID `json:"leadId,omitempty"`
	// OwnerID overrides the lead's owner, e.g. with the route-lead output.
	OwnerID      string `json:"ownerId,omitempty"`
	CRMContactID string `json:"crmContactId,omitempty"`
}

type Output struct {
	Event          string `json:"event"`
	OwnerID        string `json:"ownerId"`
	Published      bool   `json:"published"`
	MessageID      string `json:"messageId,omitempty"`
	Emailed        bool   `json:"emailed"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
}

// Notification is the SNS message body.
type Notification struct {
	Event        string        `json:"event"`
	LeadID       models.LeadID `json:"leadId"`
	OwnerID      string        `json:"ownerId"`
	Region       string        `json:"region"`
	LeadName     string        `json:"leadName"`
	Email        string        `json:"email,omitempty"`
	Company      string        `json:"company,omitempty"`
	Score        int           `json:"score"`
	CRMContactID string        `json:"crmContactId,omitempty"`
	OccurredAt   time.Time     `json:"occurredAt"`
}
