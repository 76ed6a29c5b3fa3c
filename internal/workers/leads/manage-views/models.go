package manageviews

import (
	"lead-workers/internal/leads/views"
	"lead-workers/internal/models"
)

// Actions
const (
	ActionList   = "list"
	ActionSelect = "select"
	ActionSave   = "save"
	ActionDelete = "delete"
)

type Input struct {
	UserID     string            `json:"userId"`
	Action     string            `json:"action"`
	View       string            `json:"view,omitempty"`
	Descriptor *views.Descriptor `json:"descriptor,omitempty"`
}

type Output struct {
	Action      string            `json:"action"`
	CurrentView string            `json:"currentView"`
	SortBy      models.SortOption `json:"sortBy"`
	// View is the view the action touched; empty for list and delete.
	View  *views.View  `json:"view,omitempty"`
	Views []views.View `json:"views"`
}
