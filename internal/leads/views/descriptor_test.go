package views

import (
	"encoding/json"
	"testing"

	"lead-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name       string
		descriptor Descriptor
		wantErr    bool
	}{
		{
			name: "valid score and status",
			descriptor: Descriptor{Label: "Hot EU", Sort: models.SortScoreDesc, Conditions: []Condition{
				{Field: FieldScore, Op: OpGte, Value: 70},
				{Field: FieldEmail, Op: OpContains, Value: ".eu"},
			}},
		},
		{
			name:       "no conditions",
			descriptor: Descriptor{Label: "Everything", Sort: models.SortNameAsc},
		},
		{
			name: "status in list",
			descriptor: Descriptor{Label: "Open", Sort: models.SortDateDesc, Match: MatchAny, Conditions: []Condition{
				{Field: FieldStatus, Op: OpIn, Value: []string{"new", "contacted"}},
			}},
		},
		{
			name:       "missing label",
			descriptor: Descriptor{Sort: models.SortNameAsc},
			wantErr:    true,
		},
		{
			name:       "unknown sort",
			descriptor: Descriptor{Label: "x", Sort: "price-asc"},
			wantErr:    true,
		},
		{
			name: "unknown field",
			descriptor: Descriptor{Label: "x", Sort: models.SortNameAsc, Conditions: []Condition{
				{Field: "revenue", Op: OpGt, Value: 1},
			}},
			wantErr: true,
		},
		{
			name: "ordering operator on string field",
			descriptor: Descriptor{Label: "x", Sort: models.SortNameAsc, Conditions: []Condition{
				{Field: FieldCompany, Op: OpGt, Value: "a"},
			}},
			wantErr: true,
		},
		{
			name: "string value for score",
			descriptor: Descriptor{Label: "x", Sort: models.SortNameAsc, Conditions: []Condition{
				{Field: FieldScore, Op: OpGte, Value: "80"},
			}},
			wantErr: true,
		},
		{
			name: "negative day window",
			descriptor: Descriptor{Label: "x", Sort: models.SortNameAsc, Conditions: []Condition{
				{Field: FieldCreatedAt, Op: OpWithinDays, Value: -1},
			}},
			wantErr: true,
		},
		{
			name: "in without list",
			descriptor: Descriptor{Label: "x", Sort: models.SortNameAsc, Conditions: []Condition{
				{Field: FieldStatus, Op: OpIn, Value: "new"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.descriptor.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDescriptor_Matches(t *testing.T) {
	lead := models.Lead{
		FirstName: "Marie",
		LastName:  "Curie",
		Email:     "marie@lab.eu",
		Company:   "Radium Institute",
		Status:    models.LeadStatusQualified,
		Score:     models.IntPtr(88),
		CreatedAt: daysAgo(2),
		UpdatedAt: daysAgo(5),
	}

	tests := []struct {
		name      string
		condition Condition
		expected  bool
	}{
		{name: "status eq", condition: Condition{Field: FieldStatus, Op: OpEq, Value: "qualified"}, expected: true},
		{name: "status neq", condition: Condition{Field: FieldStatus, Op: OpNeq, Value: "qualified"}, expected: false},
		{name: "status in", condition: Condition{Field: FieldStatus, Op: OpIn, Value: []interface{}{"new", "qualified"}}, expected: true},
		{name: "name contains ignores case", condition: Condition{Field: FieldName, Op: OpContains, Value: "MARIE C"}, expected: true},
		{name: "phone missing", condition: Condition{Field: FieldPhone, Op: OpMissing}, expected: true},
		{name: "owner exists", condition: Condition{Field: FieldOwnerID, Op: OpExists}, expected: false},
		{name: "score gte", condition: Condition{Field: FieldScore, Op: OpGte, Value: 88.0}, expected: true},
		{name: "score lt", condition: Condition{Field: FieldScore, Op: OpLt, Value: 88}, expected: false},
		{name: "created within 3 days", condition: Condition{Field: FieldCreatedAt, Op: OpWithinDays, Value: 3}, expected: true},
		{name: "updated older than 3 days", condition: Condition{Field: FieldUpdatedAt, Op: OpOlderThanDays, Value: 3}, expected: true},
		{name: "updated older than 7 days", condition: Condition{Field: FieldUpdatedAt, Op: OpOlderThanDays, Value: 7}, expected: false},
		{name: "wrong value type never matches", condition: Condition{Field: FieldStatus, Op: OpEq, Value: 3}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Descriptor{Label: "t", Sort: models.SortNameAsc, Conditions: []Condition{tt.condition}}
			assert.Equal(t, tt.expected, d.Matches(lead, fixedNow))
		})
	}
}

func TestDescriptor_MissingFieldsUseNeutralDefaults(t *testing.T) {
	empty := models.Lead{}

	scoreZero := Descriptor{Conditions: []Condition{{Field: FieldScore, Op: OpEq, Value: 0}}}
	assert.True(t, scoreZero.Matches(empty, fixedNow))

	recent := Descriptor{Conditions: []Condition{{Field: FieldCreatedAt, Op: OpWithinDays, Value: 7}}}
	assert.False(t, recent.Matches(empty, fixedNow))

	stale := Descriptor{Conditions: []Condition{{Field: FieldUpdatedAt, Op: OpOlderThanDays, Value: 0}}}
	assert.False(t, stale.Matches(empty, fixedNow))
}

func TestDescriptor_MatchModes(t *testing.T) {
	lead := models.Lead{Status: models.LeadStatusNew, Score: models.IntPtr(10)}
	conditions := []Condition{
		{Field: FieldStatus, Op: OpEq, Value: "new"},
		{Field: FieldScore, Op: OpGte, Value: 50},
	}

	assert.False(t, Descriptor{Match: MatchAll, Conditions: conditions}.Matches(lead, fixedNow))
	assert.False(t, Descriptor{Conditions: conditions}.Matches(lead, fixedNow))
	assert.True(t, Descriptor{Match: MatchAny, Conditions: conditions}.Matches(lead, fixedNow))
}

func TestDescriptor_RoundTripsThroughJSON(t *testing.T) {
	original := Descriptor{
		Label: "Stale EU",
		Sort:  models.SortDateAsc,
		Match: MatchAll,
		Conditions: []Condition{
			{Field: FieldEmail, Op: OpContains, Value: ".eu"},
			{Field: FieldUpdatedAt, Op: OpOlderThanDays, Value: 14},
			{Field: FieldStatus, Op: OpIn, Value: []string{"new", "contacted"}},
		},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Descriptor
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, decoded.Validate())

	lead := models.Lead{Email: "a@b.eu", Status: models.LeadStatusContacted, UpdatedAt: daysAgo(20)}
	assert.Equal(t, original.Matches(lead, fixedNow), decoded.Matches(lead, fixedNow))
	assert.True(t, decoded.Matches(lead, fixedNow))
}
