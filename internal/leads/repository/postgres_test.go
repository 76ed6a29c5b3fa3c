package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-workers/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows(leadColumns)
}

// ==========================
// ListLeads Tests
// ==========================

func TestPostgresRepository_ListLeads(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE status = \$1 ORDER BY id LIMIT 1000`).
		WithArgs("new").
		WillReturnRows(leadRows().
			AddRow("1", "Ada", "Lovelace", "ada@acme.de", nil, "Acme", "new", 85, "sales-emea", created, nil).
			AddRow("2", "Ben", nil, nil, nil, nil, "new", nil, nil, nil, nil))

	leads, err := repo.ListLeads(context.Background(), ListFilter{Status: "new"})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, models.LeadID("1"), leads[0].ID)
	assert.Equal(t, "Ada Lovelace", leads[0].FullName())
	assert.Equal(t, 85, leads[0].ScoreValue())
	require.NotNil(t, leads[0].CreatedAt)
	assert.True(t, created.Equal(*leads[0].CreatedAt))
	assert.Nil(t, leads[0].UpdatedAt)

	assert.Nil(t, leads[1].Score)
	assert.Equal(t, "", leads[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListLeads_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter ListFilter
		query  string
		args   []driver.Value
	}{
		{
			name:   "no filter",
			filter: ListFilter{},
			query:  `SELECT (.+) FROM leads ORDER BY id LIMIT 1000`,
		},
		{
			name:   "all status is ignored",
			filter: ListFilter{Status: "all", Limit: 50},
			query:  `SELECT (.+) FROM leads ORDER BY id LIMIT 50`,
		},
		{
			name:   "status and owner",
			filter: ListFilter{Status: "contacted", OwnerID: "sales-apac", Limit: 5000},
			query:  `SELECT (.+) FROM leads WHERE status = \$1 AND owner_id = \$2 ORDER BY id LIMIT 1000`,
			args:   []driver.Value{"contacted", "sales-apac"},
		},
		{
			name:   "offset page",
			filter: ListFilter{Limit: 1000, Offset: 2000},
			query:  `SELECT (.+) FROM leads ORDER BY id LIMIT 1000 OFFSET 2000`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			expect := mock.ExpectQuery(tt.query)
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(leadRows())

			leads, err := NewPostgresRepository(db).ListLeads(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Empty(t, leads)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepository_ListLeads_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM leads`).WillReturnError(errors.New("connection reset"))

	_, err := NewPostgresRepository(db).ListLeads(context.Background(), ListFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

// ==========================
// GetLead Tests
// ==========================

func TestPostgresRepository_GetLead(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id = \$1`).
		WithArgs("42").
		WillReturnRows(leadRows().
			AddRow("42", "Yuki", "Tanaka", "yuki@corp.jp", "+81", "Corp", "qualified", 92, "sales-apac", nil, nil))

	lead, err := NewPostgresRepository(db).GetLead(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, lead.Status)
	assert.Equal(t, "sales-apac", lead.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetLead_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id = \$1`).
		WithArgs("404").
		WillReturnRows(leadRows())

	_, err := NewPostgresRepository(db).GetLead(context.Background(), "404")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

// ==========================
// Update Tests
// ==========================

func TestPostgresRepository_AssignOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`UPDATE leads SET owner_id = \$1, updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs("sales-emea", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewPostgresRepository(db).AssignOwner(context.Background(), "7", "sales-emea")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`UPDATE leads SET status = \$1, updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs("converted", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewPostgresRepository(db).UpdateStatus(context.Background(), "7", models.LeadStatusConverted)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_NoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`UPDATE leads SET owner_id`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPostgresRepository(db).AssignOwner(context.Background(), "9", "sales-amer")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}
