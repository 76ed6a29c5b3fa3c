// Package pipeline derives the ordered lead list a screen displays: view
// filter, free-text search, status filter, score range, then sort.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"lead-workers/internal/models"
)

// StatusAll disables the status filter.
const StatusAll = "all"

// Matcher is satisfied by views.View.
type Matcher interface {
	Matches(lead models.Lead, now time.Time) bool
}

type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func DefaultScoreRange() ScoreRange {
	return ScoreRange{Min: models.MinScore, Max: models.MaxScore}
}

type Query struct {
	// View filters first; nil keeps every lead.
	View         Matcher
	Search       string
	StatusFilter string
	// ScoreRange is inclusive; nil means [0, 100].
	ScoreRange *ScoreRange
	SortBy     models.SortOption
	// Now is the reference time for date predicates; zero means time.Now().
	Now time.Time
}

// Apply runs the pipeline and returns a new slice. leads is never modified.
func Apply(leads []models.Lead, q Query) []models.Lead {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	scores := DefaultScoreRange()
	if q.ScoreRange != nil {
		scores = *q.ScoreRange
	}

	search := strings.ToLower(q.Search)

	out := make([]models.Lead, 0, len(leads))
	for _, lead := range leads {
		if q.View != nil && !q.View.Matches(lead, now) {
			continue
		}
		if !matchesSearch(lead, search) {
			continue
		}
		if !matchesStatus(lead, q.StatusFilter) {
			continue
		}
		if score := lead.ScoreValue(); score < scores.Min || score > scores.Max {
			continue
		}
		out = append(out, lead)
	}

	Sort(out, q.SortBy)
	return out
}

func matchesSearch(lead models.Lead, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(lead.FullName()), search) ||
		strings.Contains(strings.ToLower(lead.Email), search) ||
		strings.Contains(strings.ToLower(lead.Company), search)
}

func matchesStatus(lead models.Lead, status string) bool {
	if status == "" || status == StatusAll {
		return true
	}
	return string(lead.Status) == status
}

// Sort orders leads in place with a stable sort. Unknown options leave the
// order untouched. date-desc and date-asc order by numeric id as a recency
// proxy.
func Sort(leads []models.Lead, option models.SortOption) {
	less := comparator(option)
	if less == nil {
		return
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return less(leads[i], leads[j])
	})
}

func comparator(option models.SortOption) func(a, b models.Lead) bool {
	switch option {
	case models.SortScoreDesc:
		return func(a, b models.Lead) bool { return a.ScoreValue() > b.ScoreValue() }
	case models.SortScoreAsc:
		return func(a, b models.Lead) bool { return a.ScoreValue() < b.ScoreValue() }
	case models.SortNameAsc:
		c := newCollator()
		return func(a, b models.Lead) bool { return c.CompareString(a.FullName(), b.FullName()) < 0 }
	case models.SortNameDesc:
		c := newCollator()
		return func(a, b models.Lead) bool { return c.CompareString(a.FullName(), b.FullName()) > 0 }
	case models.SortCompanyAsc:
		c := newCollator()
		return func(a, b models.Lead) bool { return c.CompareString(a.Company, b.Company) < 0 }
	case models.SortDateDesc:
		return func(a, b models.Lead) bool { return a.ID.Numeric() > b.ID.Numeric() }
	case models.SortDateAsc:
		return func(a, b models.Lead) bool { return a.ID.Numeric() < b.ID.Numeric() }
	case models.SortCreatedDesc:
		return func(a, b models.Lead) bool {
			switch {
			case a.CreatedAt == nil:
				return false
			case b.CreatedAt == nil:
				return true
			default:
				return a.CreatedAt.After(*b.CreatedAt)
			}
		}
	}
	return nil
}

// newCollator returns a fresh collator; collators are not safe for
// concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.Und)
}
