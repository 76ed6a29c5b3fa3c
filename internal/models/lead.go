package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// SortOption names a lead list ordering.
type SortOption string

const (
	SortScoreDesc   SortOption = "score-desc"
	SortScoreAsc    SortOption = "score-asc"
	SortNameAsc     SortOption = "name-asc"
	SortNameDesc    SortOption = "name-desc"
	SortCompanyAsc  SortOption = "company-asc"
	SortDateDesc    SortOption = "date-desc"
	SortDateAsc     SortOption = "date-asc"
	SortCreatedDesc SortOption = "created-desc"
)

var validSortOptions = map[SortOption]bool{
	SortScoreDesc:   true,
	SortScoreAsc:    true,
	SortNameAsc:     true,
	SortNameDesc:    true,
	SortCompanyAsc:  true,
	SortDateDesc:    true,
	SortDateAsc:     true,
	SortCreatedDesc: true,
}

func (o SortOption) IsValid() bool {
	return validSortOptions[o]
}

const (
	MinScore = 0
	MaxScore = 100
)

// LeadID accepts both numeric and string identifiers on the wire.
type LeadID string

func (id *LeadID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LeadID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("lead id must be a number or a string: %w", err)
	}
	*id = LeadID(n.String())
	return nil
}

func (id LeadID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Numeric returns the id as a number, or 0 when it is not numeric.
func (id LeadID) Numeric() float64 {
	f, err := strconv.ParseFloat(string(id), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (id LeadID) String() string {
	return string(id)
}

type Lead struct {
	ID        LeadID     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Company   string     `json:"company,omitempty"`
	Status    LeadStatus `json:"status"`
	Score     *int       `json:"score,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	OwnerID   string     `json:"ownerId,omitempty"`
}

// ScoreValue returns the score, treating a missing score as 0.
func (l Lead) ScoreValue() int {
	if l.Score == nil {
		return 0
	}
	return *l.Score
}

func (l Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

// Validate reports data-shape violations. The lead rules never call it.
func (l Lead) Validate() error {
	if l.Score != nil && (*l.Score < MinScore || *l.Score > MaxScore) {
		return fmt.Errorf("score %d outside [%d, %d]", *l.Score, MinScore, MaxScore)
	}
	if l.Status != "" && !l.Status.IsValid() {
		return fmt.Errorf("unknown status %q", l.Status)
	}
	return nil
}

func IntPtr(v int) *int {
	return &v
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
