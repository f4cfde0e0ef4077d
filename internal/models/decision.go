package models

import "github.com/shopspring/decimal"

// Decision is the terminal business outcome of adjudicating one claim.
//
// Invariants enforced by the engine:
//   - REJECTED implies ApprovedAmount == 0
//   - APPROVED implies ApprovedAmount == claim amount minus copay/discount
//   - PARTIAL implies 0 < ApprovedAmount < claim amount
//   - ApprovedAmount <= claim amount always
type Decision struct {
	ClaimID         string          `json:"claim_id"`
	Status          DecisionStatus  `json:"status"`
	ApprovedAmount  decimal.Decimal `json:"approved_amount"`
	ConfidenceScore float64         `json:"confidence_score"`
	Reasons         []ReasonCode    `json:"decision_reasons"`
	NextSteps       string          `json:"next_steps,omitempty"`
}

// HasReason reports whether the decision carries the given reason code.
func (d *Decision) HasReason(code ReasonCode) bool {
	for _, r := range d.Reasons {
		if r == code {
			return true
		}
	}
	return false
}

// ReasonStrings returns the reason codes as plain strings for persistence.
func (d *Decision) ReasonStrings() []string {
	out := make([]string, 0, len(d.Reasons))
	for _, r := range d.Reasons {
		out = append(out, string(r))
	}
	return out
}
