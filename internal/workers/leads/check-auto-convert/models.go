package checkautoconvert

import "lead-workers/internal/models"

type Input struct {
	Lead   *models.Lead  `json:"lead,omitempty"`
	LeadID models.LeadID `json:"leadId,omitempty"`
	// CRMLeadID overrides the record id sent to the CRM when it differs from
	// the local lead id.
	CRMLeadID string `json:"crmLeadId,omitempty"`
	// CRMConversion is attached to the job when the CRM converted the lead
	// but the local status write failed. A retry then only writes the status.
	CRMConversion *CRMConversion `json:"crmConversion,omitempty"`
}

// CRMConversion records the CRM records produced by a conversion.
type CRMConversion struct {
	ContactID string `json:"contactId"`
	AccountID string `json:"accountId,omitempty"`
	DealID    string `json:"dealId,omitempty"`
}

type Output struct {
	LeadID        models.LeadID `json:"leadId"`
	Score         int           `json:"score"`
	Threshold     int           `json:"threshold"`
	ShouldConvert bool          `json:"shouldConvert"`
	Converted     bool          `json:"converted"`
	Outcome       string        `json:"outcome"`
	CRMContactID  string        `json:"crmContactId,omitempty"`
	CRMAccountID  string        `json:"crmAccountId,omitempty"`
	CRMDealID     string        `json:"crmDealId,omitempty"`
}
