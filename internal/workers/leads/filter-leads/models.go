// internal/workers/leads/filter-leads/models.go
package filterleads

import (
	"time"

	"lead-workers/internal/leads/pipeline"
	"lead-workers/internal/models"
)

type Input struct {
	UserID string `json:"userId"`
	// View overrides the user's selected view for this call only.
	View         string               `json:"view,omitempty"`
	Search       string               `json:"search,omitempty"`
	StatusFilter string               `json:"statusFilter,omitempty"`
	ScoreRange   *pipeline.ScoreRange `json:"scoreRange,omitempty"`
	SortBy       models.SortOption    `json:"sortBy,omitempty"`
	Page         int                  `json:"page,omitempty"`
	PageSize     int                  `json:"pageSize,omitempty"`
	// Leads, when present (even empty), replaces the lead source.
	Leads []models.Lead `json:"leads,omitempty"`
	Now   *time.Time    `json:"now,omitempty"`
}

type Output struct {
	View     string            `json:"view"`
	ViewKind string            `json:"viewKind"`
	SortBy   models.SortOption `json:"sortBy"`
	// Truncated is set when the lead source held more leads than the fetch
	// limit; the pipeline only saw the first FetchLimit of them.
	Truncated bool `json:"truncated"`
	pipeline.Page
}
