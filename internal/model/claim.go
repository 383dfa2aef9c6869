package model

import (
	"sort"
	"strconv"
	"strings"
)

// Error categories the backend assigns to a validated claim.
const (
	ErrorTypeNone      = "no_error"
	ErrorTypeTechnical = "technical_error"
	ErrorTypeMedical   = "medical_error"
	ErrorTypeBoth      = "both"
)

// ClaimRecord is one row of validation output for a job.
type ClaimRecord struct {
	ClaimID           string   `json:"claim_id"`
	Status            string   `json:"status"`
	ErrorType         string   `json:"error_type"`
	Explanation       string   `json:"explanation"`
	RecommendedAction string   `json:"recommended_action"`
	EncounterType     string   `json:"encounter_type,omitempty"`
	ServiceCode       string   `json:"service_code,omitempty"`
	FacilityID        string   `json:"facility_id,omitempty"`
	PaidAmountAED     *float64 `json:"paid_amount_aed,omitempty"`
	DiagnosisCodes    string   `json:"diagnosis_codes,omitempty"`
	ApprovalNumber    string   `json:"approval_number,omitempty"`
}

// DiagnosisList splits the backtick-joined diagnosis_codes field.
func (c ClaimRecord) DiagnosisList() []string {
	if c.DiagnosisCodes == "" {
		return nil
	}
	return strings.Split(c.DiagnosisCodes, "`")
}

// SortClaimsByID orders records by claim id interpreted numerically, so "10"
// lands after "2". Non-numeric ids sort after numeric ones, by string.
func SortClaimsByID(claims []ClaimRecord) {
	sort.SliceStable(claims, func(i, j int) bool {
		a, aErr := strconv.ParseFloat(claims[i].ClaimID, 64)
		b, bErr := strconv.ParseFloat(claims[j].ClaimID, 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return claims[i].ClaimID < claims[j].ClaimID
		}
	})
}
