package leads

import "lead-workers/internal/models"

// AutoConvertThreshold is inclusive.
const AutoConvertThreshold = 90

// ShouldAutoConvert reports whether a lead qualifies for automatic
// conversion. A missing score counts as 0.
func ShouldAutoConvert(lead models.Lead) bool {
	return lead.ScoreValue() >= AutoConvertThreshold && lead.Status != models.LeadStatusConverted
}
