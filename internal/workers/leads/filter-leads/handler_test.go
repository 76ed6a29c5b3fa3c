package filterleads

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	stderrors "lead-workers/internal/common/errors"
	"lead-workers/internal/common/config"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/leads/pipeline"
	"lead-workers/internal/leads/repository"
	"lead-workers/internal/leads/views"
	"lead-workers/internal/models"
	"lead-workers/internal/workers/leads/leadjob"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ==========================
// Mock Implementations
// ==========================

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListLeads(ctx context.Context, filter repository.ListFilter) ([]models.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lead), args.Error(1)
}

// pagedSource serves n sequential leads honoring Limit and Offset.
type pagedSource struct {
	n     int
	calls int
}

func (p *pagedSource) ListLeads(_ context.Context, filter repository.ListFilter) ([]models.Lead, error) {
	p.calls++
	var out []models.Lead
	for i := filter.Offset; i < p.n && len(out) < filter.Limit; i++ {
		out = append(out, models.Lead{ID: models.LeadID(fmt.Sprint(i + 1)), Status: models.LeadStatusNew})
	}
	return out, nil
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("connection refused")
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		ViewNamespace: "test",
		Source:        "postgres",
		Index:         "leads",
	}
}

func createTestHandler(t *testing.T, store views.KVStore, source repository.LeadSource) *Handler {
	if store == nil {
		store = views.NewMemoryStore()
	}
	return NewHandler(createTestConfig(), store, source, nil, logger.NewTestLogger(t))
}

func daysAgo(d int) *time.Time {
	return models.TimePtr(fixedNow.Add(-time.Duration(d) * 24 * time.Hour))
}

func createTestLeads() []models.Lead {
	return []models.Lead{
		{ID: "1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@analytical.eu", Company: "Engines Ltd",
			Status: models.LeadStatusNew, Score: models.IntPtr(95), CreatedAt: daysAgo(2)},
		{ID: "2", FirstName: "Bob", LastName: "Stone", Email: "bob@acme.com", Company: "Acme",
			Status: models.LeadStatusContacted, Score: models.IntPtr(40), CreatedAt: daysAgo(20), UpdatedAt: daysAgo(5)},
		{ID: "3", FirstName: "Chen", LastName: "Wei", Email: "chen@shop.sg", Company: "ShopCo",
			Status: models.LeadStatusQualified, Score: models.IntPtr(85), CreatedAt: daysAgo(1)},
		{ID: "4", FirstName: "Dana", LastName: "Ruiz", Email: "dana@acme.com", Company: "Acme",
			Status: models.LeadStatusNew},
		{ID: "5", FirstName: "Eve", LastName: "Park", Email: "eve@corp.jp", Company: "Corp",
			Status: models.LeadStatusConverted, Score: models.IntPtr(99), CreatedAt: daysAgo(3)},
	}
}

func createTestInput(mutate func(*Input)) *Input {
	now := fixedNow
	input := &Input{UserID: "u-1", Leads: createTestLeads(), Now: &now}
	if mutate != nil {
		mutate(input)
	}
	return input
}

func ids(items []models.Lead) []models.LeadID {
	out := make([]models.LeadID, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

func userRegistry(t *testing.T, store views.KVStore, userID string) *views.Registry {
	ns := leadjob.UserNamespace(createTestConfig().ViewNamespace, userID)
	return views.NewRegistry(store, logger.NewTestLogger(t), views.WithNamespace(ns))
}

func errorCode(t *testing.T, err error) stderrors.ErrorCode {
	t.Helper()
	stdErr, ok := stderrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %T: %v", err, err)
	return stdErr.Code
}

// ==========================
// Pipeline Tests
// ==========================

func TestHandler_Execute_Pipeline(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Input)
		expectedView string
		expectedSort models.SortOption
		expectedIDs  []models.LeadID
	}{
		{
			name:         "default view",
			expectedView: "all",
			expectedSort: models.SortScoreDesc,
			expectedIDs:  []models.LeadID{"5", "1", "3", "2", "4"},
		},
		{
			name:         "new this week uses view sort",
			mutate:       func(in *Input) { in.View = "new-this-week" },
			expectedView: "new-this-week",
			expectedSort: models.SortDateDesc,
			expectedIDs:  []models.LeadID{"5", "3", "1"},
		},
		{
			name:         "high score uncontacted",
			mutate:       func(in *Input) { in.View = "high-score-uncontacted" },
			expectedView: "high-score-uncontacted",
			expectedSort: models.SortScoreDesc,
			expectedIDs:  []models.LeadID{"1"},
		},
		{
			name:         "no reply in three days",
			mutate:       func(in *Input) { in.View = "no-reply-3d" },
			expectedView: "no-reply-3d",
			expectedSort: models.SortDateAsc,
			expectedIDs:  []models.LeadID{"2"},
		},
		{
			name: "search with explicit sort",
			mutate: func(in *Input) {
				in.Search = "ACME"
				in.SortBy = models.SortNameAsc
			},
			expectedView: "all",
			expectedSort: models.SortNameAsc,
			expectedIDs:  []models.LeadID{"2", "4"},
		},
		{
			name:         "status filter",
			mutate:       func(in *Input) { in.StatusFilter = "new" },
			expectedView: "all",
			expectedSort: models.SortScoreDesc,
			expectedIDs:  []models.LeadID{"1", "4"},
		},
		{
			name:         "score range",
			mutate:       func(in *Input) { in.ScoreRange = &pipeline.ScoreRange{Min: 80, Max: 90} },
			expectedView: "all",
			expectedSort: models.SortScoreDesc,
			expectedIDs:  []models.LeadID{"3"},
		},
		{
			name:         "empty lead list",
			mutate:       func(in *Input) { in.Leads = []models.Lead{} },
			expectedView: "all",
			expectedSort: models.SortScoreDesc,
			expectedIDs:  []models.LeadID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, nil, nil)

			output, err := handler.Execute(context.Background(), createTestInput(tt.mutate))

			require.NoError(t, err)
			assert.Equal(t, tt.expectedView, output.View)
			assert.Equal(t, tt.expectedSort, output.SortBy)
			assert.Equal(t, tt.expectedIDs, ids(output.Items))
			assert.Equal(t, len(tt.expectedIDs), output.Total)
		})
	}
}

func TestHandler_Execute_Pagination(t *testing.T) {
	handler := createTestHandler(t, nil, nil)

	output, err := handler.Execute(context.Background(), createTestInput(func(in *Input) {
		in.Page = 2
		in.PageSize = 2
	}))

	require.NoError(t, err)
	assert.Equal(t, []models.LeadID{"3", "2"}, ids(output.Items))
	assert.Equal(t, 5, output.Total)
	assert.Equal(t, 2, output.Page.Page)
	assert.Equal(t, 3, output.TotalPages)
}

func TestHandler_Execute_DoesNotMutateInput(t *testing.T) {
	handler := createTestHandler(t, nil, nil)
	input := createTestInput(func(in *Input) { in.SortBy = models.SortNameDesc })

	_, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, []models.LeadID{"1", "2", "3", "4", "5"}, ids(input.Leads))
}

// ==========================
// View State Tests
// ==========================

func TestHandler_Execute_UsesSelectedView(t *testing.T) {
	store := views.NewMemoryStore()
	_, err := userRegistry(t, store, "u-1").Select(context.Background(), "no-reply-3d")
	require.NoError(t, err)

	handler := createTestHandler(t, store, nil)
	output, err := handler.Execute(context.Background(), createTestInput(nil))

	require.NoError(t, err)
	assert.Equal(t, "no-reply-3d", output.View)
	assert.Equal(t, models.SortDateAsc, output.SortBy)
	assert.Equal(t, []models.LeadID{"2"}, ids(output.Items))

	other, err := handler.Execute(context.Background(), createTestInput(func(in *Input) { in.UserID = "u-2" }))
	require.NoError(t, err)
	assert.Equal(t, "all", other.View)
}

func TestHandler_Execute_CustomView(t *testing.T) {
	store := views.NewMemoryStore()
	_, err := userRegistry(t, store, "u-1").SaveCustom(context.Background(), "acme", views.Descriptor{
		Label: "Acme accounts",
		Sort:  models.SortNameDesc,
		Conditions: []views.Condition{
			{Field: views.FieldCompany, Op: views.OpEq, Value: "Acme"},
		},
	})
	require.NoError(t, err)

	handler := createTestHandler(t, store, nil)
	output, err := handler.Execute(context.Background(), createTestInput(func(in *Input) { in.View = "acme" }))

	require.NoError(t, err)
	assert.Equal(t, string(views.KindCustom), output.ViewKind)
	assert.Equal(t, models.SortNameDesc, output.SortBy)
	assert.Equal(t, []models.LeadID{"4", "2"}, ids(output.Items))
}

func TestHandler_Execute_RedisBackedState(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := views.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	_, err = userRegistry(t, store, "u-1").Select(context.Background(), "high-score-uncontacted")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:u-1:"+views.KeyCurrentView))

	handler := createTestHandler(t, store, nil)
	output, err := handler.Execute(context.Background(), createTestInput(nil))

	require.NoError(t, err)
	assert.Equal(t, "high-score-uncontacted", output.View)
	assert.Equal(t, []models.LeadID{"1"}, ids(output.Items))
}

func TestHandler_Execute_StoreUnavailableFallsBack(t *testing.T) {
	handler := createTestHandler(t, failingStore{}, nil)

	output, err := handler.Execute(context.Background(), createTestInput(nil))

	require.NoError(t, err)
	assert.Equal(t, "all", output.View)
	assert.Equal(t, 5, output.Total)
}

// ==========================
// Lead Source Tests
// ==========================

func TestHandler_Execute_ReadsFromSource(t *testing.T) {
	source := new(MockSource)
	source.On("ListLeads", mock.Anything, repository.ListFilter{Status: "new", Limit: repository.DefaultListLimit}).
		Return(createTestLeads()[:1], nil)

	handler := createTestHandler(t, nil, source)
	output, err := handler.Execute(context.Background(), createTestInput(func(in *Input) {
		in.Leads = nil
		in.StatusFilter = "new"
	}))

	require.NoError(t, err)
	assert.Equal(t, []models.LeadID{"1"}, ids(output.Items))
	source.AssertExpectations(t)
}

func TestHandler_Execute_PagesThroughWholeSource(t *testing.T) {
	source := &pagedSource{n: 2500}
	handler := createTestHandler(t, nil, source)

	output, err := handler.Execute(context.Background(), createTestInput(func(in *Input) {
		in.Leads = nil
		in.SortBy = models.SortDateDesc
	}))

	require.NoError(t, err)
	assert.Equal(t, 2500, output.Total)
	assert.False(t, output.Truncated)
	assert.Equal(t, models.LeadID("2500"), output.Items[0].ID)
	assert.Equal(t, 3, source.calls)
}

func TestHandler_Execute_ReportsTruncationAtFetchLimit(t *testing.T) {
	source := &pagedSource{n: 2500}
	config := createTestConfig()
	config.FetchLimit = 1200
	handler := NewHandler(config, views.NewMemoryStore(), source, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput(func(in *Input) { in.Leads = nil }))

	require.NoError(t, err)
	assert.Equal(t, 1200, output.Total)
	assert.True(t, output.Truncated)
	assert.Equal(t, 2, source.calls)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Input)
		setupSource  func(*MockSource)
		expectedCode stderrors.ErrorCode
	}{
		{
			name:         "unknown view",
			mutate:       func(in *Input) { in.View = "does-not-exist" },
			expectedCode: stderrors.ErrCodeViewNotFound,
		},
		{
			name:         "invalid sort",
			mutate:       func(in *Input) { in.SortBy = "random" },
			expectedCode: stderrors.ErrCodeInvalidLeadInput,
		},
		{
			name:   "index missing",
			mutate: func(in *Input) { in.Leads = nil },
			setupSource: func(m *MockSource) {
				m.On("ListLeads", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: leads", repository.ErrIndexNotFound))
			},
			expectedCode: stderrors.ErrCodeIndexNotFound,
		},
		{
			name:   "source failure",
			mutate: func(in *Input) { in.Leads = nil },
			setupSource: func(m *MockSource) {
				m.On("ListLeads", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
			},
			expectedCode: stderrors.ErrCodeLeadSourceFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockSource)
			if tt.setupSource != nil {
				tt.setupSource(source)
			}

			handler := createTestHandler(t, nil, source)
			output, err := handler.Execute(context.Background(), createTestInput(tt.mutate))

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.expectedCode, errorCode(t, err))
		})
	}
}

func TestHandler_Execute_NoSourceNoLeads(t *testing.T) {
	handler := createTestHandler(t, nil, nil)

	_, err := handler.Execute(context.Background(), createTestInput(func(in *Input) { in.Leads = nil }))

	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidLeadInput, errorCode(t, err))
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{
		Leads: config.LeadsConfig{
			Source:        config.LeadSourceElasticsearch,
			Index:         "crm-leads",
			ViewNamespace: "team-a",
			FetchLimit:    25000,
		},
		Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 4000}},
	}

	c := LoadConfig(cfg)
	assert.Equal(t, 4*time.Second, c.Timeout)
	assert.Equal(t, "team-a", c.ViewNamespace)
	assert.Equal(t, "elasticsearch", c.Source)
	assert.Equal(t, "crm-leads", c.Index)
	assert.Equal(t, 25000, c.FetchLimit)
}
