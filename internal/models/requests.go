package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitClaimRequest is the caller-facing input for creating a claim.
type SubmitClaimRequest struct {
	PatientName   string          `json:"patient_name" form:"patient_name"`
	EmployeeID    string          `json:"employee_id" form:"employee_id"`
	ClaimAmount   decimal.Decimal `json:"claim_amount" form:"claim_amount"`
	ClaimCategory ClaimCategory   `json:"claim_category" form:"claim_category"`
	TreatmentDate time.Time       `json:"treatment_date"`
	HospitalName  string          `json:"hospital_name,omitempty" form:"hospital_name"`
	Notes         string          `json:"notes,omitempty" form:"notes"`
}

// DocumentUpload is one supporting document attached at submission.
type DocumentUpload struct {
	Filename string
	MimeType string
	Content  []byte
}

// ClaimFilter narrows claim listings.
type ClaimFilter struct {
	EmployeeID string
	Status     ClaimState
	Page       int
	PageSize   int
}

// Normalize applies listing defaults.
func (f *ClaimFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 10
	}
}
