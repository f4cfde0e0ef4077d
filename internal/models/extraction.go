package models

// Facts is the structured payload a single extractor produces from document
// text. A failed extractor returns the zero value with confidence 0 rather
// than an error.
type Facts struct {
	PatientName    string         `json:"patient_name,omitempty"`
	DoctorName     string         `json:"doctor_name,omitempty"`
	DoctorRegNo    string         `json:"doctor_reg_number,omitempty"`
	HospitalName   string         `json:"hospital_name,omitempty"`
	DocumentKinds  []DocumentKind `json:"document_kinds,omitempty"`
	DiagnosisTerms []string       `json:"diagnosis_terms,omitempty"`
	ProcedureTerms []string       `json:"procedure_terms,omitempty"`
	PreAuthPresent bool           `json:"pre_authorization_present"`
}

// IsEmpty reports whether the extractor found nothing usable.
func (f Facts) IsEmpty() bool {
	return len(f.DocumentKinds) == 0 &&
		len(f.DiagnosisTerms) == 0 &&
		len(f.ProcedureTerms) == 0 &&
		f.DoctorRegNo == "" &&
		f.PatientName == ""
}

// ExtractedClaimData is the merged extraction result consumed by the
// adjudication engine. Produced fresh per processing attempt and never
// mutated afterwards.
type ExtractedClaimData struct {
	Facts
	Confidence float64          `json:"extraction_confidence"`
	Source     ExtractionSource `json:"source"`
}

// HasDocumentKind reports whether the given kind was detected in any document.
func (e ExtractedClaimData) HasDocumentKind(kind DocumentKind) bool {
	for _, k := range e.DocumentKinds {
		if k == kind {
			return true
		}
	}
	return false
}
