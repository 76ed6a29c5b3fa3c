package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"lead-workers/internal/models"
)

const leadsTable = "leads"

var leadColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "company",
	"status", "score", "owner_id", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListLeads(ctx context.Context, filter ListFilter) ([]models.Lead, error) {
	q := psql.Select(leadColumns...).From(leadsTable)
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.OwnerID != "" {
		q = q.Where(sq.Eq{"owner_id": filter.OwnerID})
	}
	q = q.OrderBy("id").Limit(uint64(limitOrDefault(filter.Limit)))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func (r *PostgresRepository) GetLead(ctx context.Context, id models.LeadID) (*models.Lead, error) {
	query, args, err := psql.Select(leadColumns...).From(leadsTable).Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}
	return lead, err
}

func (r *PostgresRepository) AssignOwner(ctx context.Context, id models.LeadID, ownerID string) error {
	return r.update(ctx, id, "owner_id", ownerID)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id models.LeadID, status models.LeadStatus) error {
	return r.update(ctx, id, "status", string(status))
}

func (r *PostgresRepository) update(ctx context.Context, id models.LeadID, column string, value interface{}) error {
	query, args, err := psql.Update(leadsTable).
		Set(column, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lead %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead %s: %w", column, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		id                           string
		firstName, lastName          sql.NullString
		email, phone, company, owner sql.NullString
		status                       string
		score                        sql.NullInt64
		createdAt, updatedAt         sql.NullTime
	)

	err := row.Scan(&id, &firstName, &lastName, &email, &phone, &company,
		&status, &score, &owner, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan lead: %w", err)
	}

	lead := &models.Lead{
		ID:        models.LeadID(id),
		FirstName: firstName.String,
		LastName:  lastName.String,
		Email:     email.String,
		Phone:     phone.String,
		Company:   company.String,
		Status:    models.LeadStatus(status),
		OwnerID:   owner.String,
	}
	if score.Valid {
		lead.Score = models.IntPtr(int(score.Int64))
	}
	if createdAt.Valid {
		lead.CreatedAt = models.TimePtr(createdAt.Time)
	}
	if updatedAt.Valid {
		lead.UpdatedAt = models.TimePtr(updatedAt.Time)
	}
	return lead, nil
}
