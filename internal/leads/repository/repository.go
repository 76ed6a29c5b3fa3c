// Package repository loads and updates lead records in the backing stores.
package repository

import (
	"context"
	"errors"

	"lead-workers/internal/models"
)

var (
	ErrLeadNotFound  = errors.New("LEAD_NOT_FOUND")
	ErrIndexNotFound = errors.New("INDEX_NOT_FOUND")
)

const (
	// DefaultListLimit bounds a single list call when the filter sets no limit.
	DefaultListLimit = 1000
	// DefaultFetchCap bounds FetchAll when the caller sets no cap. It matches
	// the Elasticsearch default index.max_result_window.
	DefaultFetchCap = 10000
)

type ListFilter struct {
	Status  string
	OwnerID string
	Limit   int
	Offset  int
}

// LeadSource supplies the lead collection the pipeline runs over.
type LeadSource interface {
	ListLeads(ctx context.Context, filter ListFilter) ([]models.Lead, error)
}

// LeadRepository is the writable lead store.
type LeadRepository interface {
	LeadSource
	GetLead(ctx context.Context, id models.LeadID) (*models.Lead, error)
	AssignOwner(ctx context.Context, id models.LeadID, ownerID string) error
	UpdateStatus(ctx context.Context, id models.LeadID, status models.LeadStatus) error
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

// FetchAll pages through source in DefaultListLimit batches until it is
// exhausted or maxLeads have been read. truncated reports that the cap was
// reached, so the source may hold more. maxLeads <= 0 means DefaultFetchCap.
func FetchAll(ctx context.Context, source LeadSource, filter ListFilter, maxLeads int) (leads []models.Lead, truncated bool, err error) {
	if maxLeads <= 0 {
		maxLeads = DefaultFetchCap
	}

	leads = make([]models.Lead, 0)
	for len(leads) < maxLeads {
		want := maxLeads - len(leads)
		if want > DefaultListLimit {
			want = DefaultListLimit
		}
		filter.Limit = want
		filter.Offset = len(leads)

		batch, err := source.ListLeads(ctx, filter)
		if err != nil {
			return nil, false, err
		}
		if len(batch) > want {
			batch = batch[:want]
		}
		leads = append(leads, batch...)

		if len(batch) < want {
			return leads, false, nil
		}
	}
	return leads, true, nil
}
