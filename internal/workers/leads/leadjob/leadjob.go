// Package leadjob holds the input resolution and error mapping shared by the
// lead workers.
package leadjob

import (
	"context"
	stderrors "errors"
	"strings"

	"lead-workers/internal/common/errors"
	"lead-workers/internal/leads/repository"
	"lead-workers/internal/leads/views"
	"lead-workers/internal/models"
)

// LeadGetter loads a single lead by id.
type LeadGetter interface {
	GetLead(ctx context.Context, id models.LeadID) (*models.Lead, error)
}

// ResolveLead returns the inline lead when present, otherwise loads id
// through getter.
func ResolveLead(ctx context.Context, getter LeadGetter, inline *models.Lead, id models.LeadID) (*models.Lead, error) {
	if inline != nil {
		if inline.ID == "" {
			inline.ID = id
		}
		return inline, nil
	}
	if id == "" {
		return nil, errors.NewInvalidLeadInputError("lead or leadId is required")
	}
	if getter == nil {
		return nil, errors.NewInvalidLeadInputError("lead is required when no lead store is configured")
	}

	lead, err := getter.GetLead(ctx, id)
	if err != nil {
		return nil, ReadError(id, err)
	}
	return lead, nil
}

// ReadError maps a failed lead lookup to a job error.
func ReadError(id models.LeadID, err error) error {
	if stderrors.Is(err, repository.ErrLeadNotFound) {
		return errors.NewLeadNotFoundError(id.String())
	}
	return errors.NewLeadSourceFailedError("lead store", err)
}

// RepositoryError maps a failed lead write to a job error.
func RepositoryError(id models.LeadID, err error) error {
	if stderrors.Is(err, repository.ErrLeadNotFound) {
		return errors.NewLeadNotFoundError(id.String())
	}
	return errors.NewLeadUpdateFailedError(id.String(), err)
}

// SourceError maps a lead source error to a job error.
func SourceError(source, index string, err error) error {
	if stderrors.Is(err, repository.ErrIndexNotFound) {
		return errors.NewIndexNotFoundError(index)
	}
	return errors.NewLeadSourceFailedError(source, err)
}

// RegistryError maps a view registry error to a job error.
func RegistryError(op, view string, err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, views.ErrViewNotFound):
		return errors.NewViewNotFoundError(view)
	case stderrors.Is(err, views.ErrInvalidView):
		return errors.NewInvalidViewDefinitionError(err)
	case stderrors.Is(err, views.ErrInvalidSort):
		return errors.NewInvalidLeadInputError(err.Error())
	default:
		return errors.NewViewStoreFailedError(op, err)
	}
}

// UserNamespace scopes persisted view state to a user under base.
func UserNamespace(base, userID string) string {
	userID = strings.TrimSpace(userID)
	switch {
	case base == "":
		return userID
	case userID == "":
		return base
	default:
		return base + ":" + userID
	}
}
