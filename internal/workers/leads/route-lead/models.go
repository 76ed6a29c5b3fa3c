// internal/workers/leads/route-lead/models.go
package routelead

import "lead-workers/internal/models"

type Input struct {
	Lead   *models.Lead  `json:"lead,omitempty"`
	LeadID models.LeadID `json:"leadId,omitempty"`
}

type Output struct {
	LeadID          models.LeadID `json:"leadId"`
	OwnerID         string        `json:"ownerId"`
	Region          string        `json:"region"`
	PreviousOwnerID string        `json:"previousOwnerId,omitempty"`
	// Assigned is true when the owner was written back to the lead store.
	Assigned bool `json:"assigned"`
}
