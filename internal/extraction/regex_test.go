package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
)

const samplePrescription = `
Sunrise Medical Centre
Dr. Anita Mehta  MBBS, MD
Reg No: KA/MED/54321/2015

Patient Name: Rahul Sharma
Date: 12/08/2026

Diagnosis: Viral fever, acute pharyngitis

Rx:
Tab Paracetamol 650mg
Syrup Benadryl 10ml

Tests advised: CBC, CRP

Advice: Rest and fluids
`

func TestRegexExtractor_Prescription(t *testing.T) {
	facts, confidence, err := NewRegexExtractor().ExtractFacts(context.Background(), samplePrescription)
	require.NoError(t, err)

	assert.Equal(t, "Rahul Sharma", facts.PatientName)
	assert.Equal(t, "Anita Mehta  MBBS", facts.DoctorName)
	assert.Equal(t, "KA/MED/54321/2015", facts.DoctorRegNo)
	assert.Contains(t, facts.DiagnosisTerms, "Viral fever")
	assert.Contains(t, facts.DiagnosisTerms, "acute pharyngitis")
	assert.NotEmpty(t, facts.ProcedureTerms)
	assert.Contains(t, facts.DocumentKinds, models.DocPrescription)
	assert.False(t, facts.PreAuthPresent)

	// All five scored fields found: 0.3 + 5*0.12 capped at 0.85.
	assert.InDelta(t, 0.85, confidence, 1e-9)
}

func TestRegexExtractor_EmptyText(t *testing.T) {
	facts, confidence, err := NewRegexExtractor().ExtractFacts(context.Background(), "   \n ")
	require.NoError(t, err)

	assert.True(t, facts.IsEmpty())
	assert.Zero(t, confidence)
}

func TestRegexExtractor_SparseText(t *testing.T) {
	facts, confidence, err := NewRegexExtractor().ExtractFacts(context.Background(),
		"handwritten note, mostly illegible scribbles")
	require.NoError(t, err)

	assert.Empty(t, facts.PatientName)
	assert.Less(t, confidence, 0.5, "sparse text should stay below the review threshold")
}

func TestRegexExtractor_DetectsBillAndReport(t *testing.T) {
	text := `
INVOICE #4821
Total Amount: 1500.00

Laboratory findings: within normal limits
`
	facts, _, err := NewRegexExtractor().ExtractFacts(context.Background(), text)
	require.NoError(t, err)

	assert.Contains(t, facts.DocumentKinds, models.DocBill)
	assert.Contains(t, facts.DocumentKinds, models.DocReport)
	assert.NotContains(t, facts.DocumentKinds, models.DocPrescription)
}

func TestRegexExtractor_PreAuthReference(t *testing.T) {
	facts, _, err := NewRegexExtractor().ExtractFacts(context.Background(),
		"MRI Brain advised. Pre-authorization No: PA-2298 approved by insurer.")
	require.NoError(t, err)

	assert.True(t, facts.PreAuthPresent)
}

func TestRegexExtractor_ConfidenceCapped(t *testing.T) {
	_, confidence, err := NewRegexExtractor().ExtractFacts(context.Background(), samplePrescription)
	require.NoError(t, err)
	assert.LessOrEqual(t, confidence, 0.85)
}
