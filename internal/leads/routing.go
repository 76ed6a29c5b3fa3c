// Package leads holds the lead lifecycle rules: owner routing and
// auto-conversion eligibility.
package leads

import (
	"strings"

	"lead-workers/internal/models"
)

// Owner ids consumed by the assignment and notification workers.
const (
	OwnerEMEA = "user-emea-1"
	OwnerAPAC = "user-apac-1"
	OwnerAMER = "user-amer-1"
)

const (
	RegionEMEA = "emea"
	RegionAPAC = "apac"
	RegionAMER = "amer"
)

type Assignment struct {
	OwnerID string `json:"ownerId"`
	Region  string `json:"region"`
}

// routingRules are checked in order; the first suffix match wins.
var routingRules = []struct {
	suffixes   []string
	assignment Assignment
}{
	{suffixes: []string{".eu"}, assignment: Assignment{OwnerID: OwnerEMEA, Region: RegionEMEA}},
	{suffixes: []string{".jp", ".sg"}, assignment: Assignment{OwnerID: OwnerAPAC, Region: RegionAPAC}},
}

var defaultAssignment = Assignment{OwnerID: OwnerAMER, Region: RegionAMER}

// Route picks the owner for a lead from its email domain. Suffixes match
// case-insensitively, so "X@Y.EU" routes like "x@y.eu".
func Route(lead models.Lead) Assignment {
	domain := EmailDomain(lead.Email)
	for _, rule := range routingRules {
		for _, suffix := range rule.suffixes {
			if strings.HasSuffix(domain, suffix) {
				return rule.assignment
			}
		}
	}
	return defaultAssignment
}

// RouteLead returns the owner id for a lead. It never fails.
func RouteLead(lead models.Lead) string {
	return Route(lead).OwnerID
}

// EmailDomain returns the lowercased text between the first and second '@',
// or "" when the address has none.
func EmailDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}
