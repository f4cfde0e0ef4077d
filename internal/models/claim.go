package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Claim is the persistent record of a submitted OPD claim. It is owned by the
// processing pipeline and mutated only through pipeline state transitions.
type Claim struct {
	ClaimID       string          `json:"claim_id" db:"claim_id"`
	PatientName   string          `json:"patient_name" db:"patient_name"`
	EmployeeID    string          `json:"employee_id" db:"employee_id"`
	ClaimAmount   decimal.Decimal `json:"claim_amount" db:"claim_amount"`
	ClaimCategory ClaimCategory   `json:"claim_category" db:"claim_category"`
	TreatmentDate time.Time       `json:"treatment_date" db:"treatment_date"`
	HospitalName  string          `json:"hospital_name" db:"hospital_name"`
	Notes         string          `json:"notes" db:"notes"`
	DocumentRefs  pq.StringArray  `json:"document_refs" db:"document_refs"`

	Status ClaimState `json:"status" db:"status"`

	// Decision fields, populated once the claim reaches DECIDED.
	DecisionStatus  *DecisionStatus `json:"decision_status,omitempty" db:"decision_status"`
	ApprovedAmount  decimal.Decimal `json:"approved_amount" db:"approved_amount"`
	ConfidenceScore float64         `json:"confidence_score" db:"confidence_score"`
	DecisionReasons pq.StringArray  `json:"decision_reasons" db:"decision_reasons"`
	NextSteps       string          `json:"next_steps" db:"next_steps"`

	// Extraction snapshot from the most recent processing attempt.
	ExtractionSource     string  `json:"extraction_source" db:"extraction_source"`
	ExtractionConfidence float64 `json:"extraction_confidence" db:"extraction_confidence"`

	SubmittedAt time.Time  `json:"submitted_at" db:"submitted_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// Decision returns the stored decision, or nil if the claim has not been
// adjudicated yet.
func (c *Claim) Decision() *Decision {
	if c.DecisionStatus == nil {
		return nil
	}
	reasons := make([]ReasonCode, 0, len(c.DecisionReasons))
	for _, r := range c.DecisionReasons {
		reasons = append(reasons, ReasonCode(r))
	}
	return &Decision{
		ClaimID:         c.ClaimID,
		Status:          *c.DecisionStatus,
		ApprovedAmount:  c.ApprovedAmount,
		ConfidenceScore: c.ConfidenceScore,
		Reasons:         reasons,
		NextSteps:       c.NextSteps,
	}
}

// ClaimHistory is a read-only snapshot of an employee's prior claims, taken at
// the start of adjudication. Used for duplicate detection and annual-limit
// accumulation only.
type ClaimHistory []Claim

// ApprovedTotalInYear sums approved amounts of decided APPROVED/PARTIAL claims
// whose submission falls in the given calendar year, excluding the claim being
// adjudicated.
func (h ClaimHistory) ApprovedTotalInYear(claimID string, year int) decimal.Decimal {
	total := decimal.Zero
	for _, c := range h {
		if c.ClaimID == claimID || c.SubmittedAt.Year() != year || c.DecisionStatus == nil {
			continue
		}
		if *c.DecisionStatus == DecisionApproved || *c.DecisionStatus == DecisionPartial {
			total = total.Add(c.ApprovedAmount)
		}
	}
	return total
}

// CountSameTreatmentDay counts prior claims for the same treatment date,
// excluding the claim being adjudicated.
func (h ClaimHistory) CountSameTreatmentDay(claimID string, treatmentDate time.Time) int {
	n := 0
	y, m, d := treatmentDate.Date()
	for _, c := range h {
		if c.ClaimID == claimID {
			continue
		}
		cy, cm, cd := c.TreatmentDate.Date()
		if cy == y && cm == m && cd == d {
			n++
		}
	}
	return n
}
