// Package views holds the lead list views: the fixed built-in views, the
// user-defined custom views and the registry that persists the selection.
package views

import (
	"time"

	"lead-workers/internal/models"
)

type Kind string

const (
	KindBuiltIn Kind = "builtin"
	KindCustom  Kind = "custom"
)

// BuiltIn enumerates the fixed views.
type BuiltIn string

const (
	ViewAll                  BuiltIn = "all"
	ViewNewThisWeek          BuiltIn = "new-this-week"
	ViewNoReply3d            BuiltIn = "no-reply-3d"
	ViewHighScoreUncontacted BuiltIn = "high-score-uncontacted"
	ViewTrialStarted         BuiltIn = "trial-started"
)

const (
	recentWindow       = 7 * 24 * time.Hour
	noReplyWindow      = 3 * 24 * time.Hour
	highScoreThreshold = 80
)

// View is either a built-in view or a custom view carrying a Descriptor.
type View struct {
	Kind       Kind              `json:"kind"`
	Name       string            `json:"name"`
	Label      string            `json:"label"`
	Sort       models.SortOption `json:"sort"`
	Descriptor *Descriptor       `json:"descriptor,omitempty"`

	builtin BuiltIn
}

// Matches reports whether the lead belongs to the view at time now.
func (v View) Matches(lead models.Lead, now time.Time) bool {
	if v.Kind == KindCustom {
		if v.Descriptor == nil {
			return true
		}
		return v.Descriptor.Matches(lead, now)
	}
	return matchBuiltIn(v.builtin, lead, now)
}

func matchBuiltIn(id BuiltIn, lead models.Lead, now time.Time) bool {
	switch id {
	case ViewNewThisWeek:
		return createdWithin(lead, now, recentWindow)
	case ViewNoReply3d:
		if lead.UpdatedAt == nil {
			return lead.Status == models.LeadStatusContacted
		}
		return now.Sub(*lead.UpdatedAt) >= noReplyWindow && lead.Status != models.LeadStatusConverted
	case ViewHighScoreUncontacted:
		return lead.ScoreValue() >= highScoreThreshold && lead.Status == models.LeadStatusNew
	case ViewTrialStarted:
		return createdWithin(lead, now, recentWindow) && lead.Status == models.LeadStatusQualified
	default:
		return true
	}
}

func createdWithin(lead models.Lead, now time.Time, window time.Duration) bool {
	return lead.CreatedAt != nil && lead.CreatedAt.After(now.Add(-window))
}

var builtInViews = []View{
	{Kind: KindBuiltIn, Name: string(ViewAll), Label: "All leads", Sort: models.SortScoreDesc, builtin: ViewAll},
	{Kind: KindBuiltIn, Name: string(ViewNewThisWeek), Label: "New this week", Sort: models.SortDateDesc, builtin: ViewNewThisWeek},
	{Kind: KindBuiltIn, Name: string(ViewNoReply3d), Label: "No reply in 3 days", Sort: models.SortDateAsc, builtin: ViewNoReply3d},
	{Kind: KindBuiltIn, Name: string(ViewHighScoreUncontacted), Label: "High score, uncontacted", Sort: models.SortScoreDesc, builtin: ViewHighScoreUncontacted},
	{Kind: KindBuiltIn, Name: string(ViewTrialStarted), Label: "Trial started", Sort: models.SortDateDesc, builtin: ViewTrialStarted},
}

// BuiltInViews returns the fixed views in display order.
func BuiltInViews() []View {
	out := make([]View, len(builtInViews))
	copy(out, builtInViews)
	return out
}

// LookupBuiltIn returns the built-in view with the given name.
func LookupBuiltIn(name string) (View, bool) {
	for _, v := range builtInViews {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

func customView(name string, d Descriptor) View {
	desc := d
	return View{
		Kind:       KindCustom,
		Name:       name,
		Label:      d.Label,
		Sort:       d.Sort,
		Descriptor: &desc,
	}
}
