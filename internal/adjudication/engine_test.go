package adjudication

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
	"claims-service/internal/policy"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func testClaim(amount float64, category models.ClaimCategory) *models.Claim {
	now := time.Now()
	return &models.Claim{
		ClaimID:       "CLM_TEST0001",
		PatientName:   "Rahul Sharma",
		EmployeeID:    "EMP001",
		ClaimAmount:   decimal.NewFromFloat(amount),
		ClaimCategory: category,
		TreatmentDate: now.AddDate(0, 0, -5),
		HospitalName:  "City Care Clinic",
		Status:        models.StateAdjudicating,
		SubmittedAt:   now,
	}
}

func testExtracted(kinds ...models.DocumentKind) models.ExtractedClaimData {
	return models.ExtractedClaimData{
		Facts: models.Facts{
			PatientName:   "Rahul Sharma",
			DoctorName:    "Dr. Mehta",
			DoctorRegNo:   "KA/MED/54321/2015",
			HospitalName:  "City Care Clinic",
			DocumentKinds: kinds,
		},
		Confidence: 0.9,
		Source:     models.SourceLLM,
	}
}

func testInput(claim *models.Claim, extracted models.ExtractedClaimData) Input {
	return Input{
		Claim:     claim,
		Extracted: extracted,
		Policy:    policy.Default(),
		History:   nil,
		Now:       time.Now(),
	}
}

// customPolicy builds a policy document with overridable consultation terms
// and effective start, for scenarios the default policy cannot express.
func customPolicy(t *testing.T, effectiveStart time.Time, perClaimLimit, consultSubLimit float64) *policy.Model {
	t.Helper()
	raw := fmt.Sprintf(`{
		"policy_id": "TEST_OPD",
		"effective_start": %q,
		"coverage_details": {
			"annual_limit": 50000,
			"per_claim_limit": %v,
			"categories": {
				"consultation": {
					"covered": true,
					"sub_limit": %v,
					"copay_percentage": 20,
					"network_discount": 20,
					"required_documents": ["prescription"]
				}
			}
		},
		"waiting_periods": {
			"initial_days": 30,
			"pre_existing_disease_days": 365,
			"specific_ailments": {"diabetes": 90, "hypertension": 90}
		},
		"exclusions": ["cosmetic procedures"],
		"network_hospitals": ["apollo", "fortis", "max"],
		"claim_requirements": {
			"submission_window_days": 365,
			"minimum_claim_amount": 500,
			"manual_review_threshold": 25000
		}
	}`, effectiveStart.Format("2006-01-02"), perClaimLimit, consultSubLimit)

	m, err := policy.Parse([]byte(raw))
	require.NoError(t, err)
	return m
}

// ============================================================================
// APPROVAL AND COPAY
// ============================================================================

func TestAdjudicate_ConsultationWithCopay(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription)))

	assert.Equal(t, models.DecisionApproved, decision.Status)
	assert.True(t, decision.ApprovedAmount.Equal(decimal.NewFromInt(1350)),
		"10%% copay on 1500 should approve 1350, got %s", decision.ApprovedAmount)
	assert.Contains(t, decision.Reasons, models.ReasonCopayApplied)
	assert.NotContains(t, decision.Reasons, models.ReasonNetworkDiscountApplied)
}

func TestAdjudicate_NetworkHospitalWaivesCopay(t *testing.T) {
	pol := customPolicy(t, time.Now().AddDate(-1, 0, 0), 5000, 5000)
	claim := testClaim(4500, models.CategoryConsultation)
	claim.HospitalName = "Apollo Clinic, Indiranagar"

	decision := Adjudicate(Input{
		Claim:     claim,
		Extracted: testExtracted(models.DocPrescription),
		Policy:    pol,
		Now:       time.Now(),
	})

	assert.Equal(t, models.DecisionApproved, decision.Status)
	assert.True(t, decision.ApprovedAmount.Equal(decimal.NewFromInt(3600)),
		"20%% network discount on 4500 should approve 3600, got %s", decision.ApprovedAmount)
	assert.Contains(t, decision.Reasons, models.ReasonNetworkDiscountApplied)
	assert.NotContains(t, decision.Reasons, models.ReasonCopayApplied,
		"network treatment is cashless, copay must be waived")
}

// ============================================================================
// REJECTIONS
// ============================================================================

func TestAdjudicate_ExceedsPerClaimLimit(t *testing.T) {
	claim := testClaim(7500, models.CategoryPharmacy)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription, models.DocBill)))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.True(t, decision.ApprovedAmount.IsZero())
	assert.Contains(t, decision.Reasons, models.ReasonExceedsPerClaimLimit)
}

func TestAdjudicate_BelowMinimumAmount(t *testing.T) {
	claim := testClaim(300, models.CategoryConsultation)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription)))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonInvalidClaimData)
}

func TestAdjudicate_FutureTreatmentDate(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	claim.TreatmentDate = time.Now().AddDate(0, 0, 3)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription)))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonInvalidClaimData)
}

func TestAdjudicate_OutsideSubmissionWindow(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	claim.TreatmentDate = time.Now().AddDate(0, 0, -60)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription)))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonInvalidClaimData)
}

func TestAdjudicate_MissingRequiredDocument(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocBill)))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonMissingDocument)
}

func TestAdjudicate_DiabetesWaitingPeriodNotElapsed(t *testing.T) {
	pol := customPolicy(t, time.Now().AddDate(0, 0, -60), 5000, 2000)
	claim := testClaim(1500, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.DiagnosisTerms = []string{"Type 2 Diabetes Mellitus"}

	decision := Adjudicate(Input{
		Claim:     claim,
		Extracted: extracted,
		Policy:    pol,
		Now:       time.Now(),
	})

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonWaitingPeriod)
	assert.Contains(t, decision.NextSteps, "90-day waiting period")
}

func TestAdjudicate_InitialWaitingPeriod(t *testing.T) {
	pol := customPolicy(t, time.Now().AddDate(0, 0, -10), 5000, 2000)
	claim := testClaim(1500, models.CategoryConsultation)

	decision := Adjudicate(Input{
		Claim:     claim,
		Extracted: testExtracted(models.DocPrescription),
		Policy:    pol,
		Now:       time.Now(),
	})

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonWaitingPeriod)
}

func TestAdjudicate_PreAuthorizationMissing(t *testing.T) {
	claim := testClaim(4000, models.CategoryDiagnostic)
	extracted := testExtracted(models.DocPrescription, models.DocReport)
	extracted.ProcedureTerms = []string{"MRI Brain with contrast"}

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonPreAuthRequired)
}

func TestAdjudicate_PreAuthorizationPresent(t *testing.T) {
	claim := testClaim(4000, models.CategoryDiagnostic)
	extracted := testExtracted(models.DocPrescription, models.DocReport)
	extracted.ProcedureTerms = []string{"MRI Brain with contrast"}
	extracted.PreAuthPresent = true

	decision := Adjudicate(testInput(claim, extracted))
	assert.Equal(t, models.DecisionApproved, decision.Status)
}

func TestAdjudicate_FullyExcludedProcedure(t *testing.T) {
	claim := testClaim(3000, models.CategoryDental)
	extracted := testExtracted(models.DocBill)
	extracted.ProcedureTerms = []string{"Teeth whitening"}

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.True(t, decision.ApprovedAmount.IsZero())
	assert.Contains(t, decision.Reasons, models.ReasonFullyExcluded)
}

// ============================================================================
// PARTIAL APPROVALS
// ============================================================================

func TestAdjudicate_PartialExclusionCapsAtSubLimit(t *testing.T) {
	claim := testClaim(4000, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.ProcedureTerms = []string{"General consultation", "Cosmetic mole removal"}

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionPartial, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonPartialExclusion)
	assert.True(t, decision.ApprovedAmount.LessThan(claim.ClaimAmount))
}

func TestAdjudicate_SubLimitCap(t *testing.T) {
	claim := testClaim(3000, models.CategoryConsultation)
	decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription)))

	// Consultation sub-limit 2000, then 10% copay on the capped amount.
	assert.Equal(t, models.DecisionPartial, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonSubLimitCapped)
	assert.True(t, decision.ApprovedAmount.Equal(decimal.NewFromInt(1800)),
		"expected 2000 capped then 10%% copay = 1800, got %s", decision.ApprovedAmount)
}

func TestAdjudicate_AnnualLimitCap(t *testing.T) {
	approved := models.DecisionApproved
	history := models.ClaimHistory{}
	// 48000 already approved this year leaves 2000 headroom.
	for i := 0; i < 12; i++ {
		history = append(history, models.Claim{
			ClaimID:        fmt.Sprintf("CLM_HIST%04d", i),
			EmployeeID:     "EMP001",
			ClaimAmount:    decimal.NewFromInt(4000),
			ApprovedAmount: decimal.NewFromInt(4000),
			TreatmentDate:  time.Now().AddDate(0, 0, -40),
			DecisionStatus: &approved,
			SubmittedAt:    time.Now(),
		})
	}

	claim := testClaim(4000, models.CategoryPharmacy)
	in := testInput(claim, testExtracted(models.DocPrescription, models.DocBill))
	in.History = history

	decision := Adjudicate(in)

	assert.Equal(t, models.DecisionPartial, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonAnnualLimitCapped)
	// 2000 headroom, then 30% pharmacy copay.
	assert.True(t, decision.ApprovedAmount.Equal(decimal.NewFromInt(1400)),
		"expected 2000 headroom then 30%% copay = 1400, got %s", decision.ApprovedAmount)
}

func TestAdjudicate_AnnualLimitIgnoresOwnPriorPayout(t *testing.T) {
	// Reprocessing a decided claim must not count its own earlier payout
	// against the annual limit.
	approved := models.DecisionApproved
	history := models.ClaimHistory{}
	for i := 0; i < 12; i++ {
		history = append(history, models.Claim{
			ClaimID:        fmt.Sprintf("CLM_HIST%04d", i),
			EmployeeID:     "EMP001",
			ClaimAmount:    decimal.NewFromInt(4000),
			ApprovedAmount: decimal.NewFromInt(4000),
			TreatmentDate:  time.Now().AddDate(0, 0, -40),
			DecisionStatus: &approved,
			SubmittedAt:    time.Now(),
		})
	}

	claim := testClaim(4000, models.CategoryPharmacy)
	history = append(history, models.Claim{
		ClaimID:        claim.ClaimID,
		EmployeeID:     "EMP001",
		ClaimAmount:    claim.ClaimAmount,
		ApprovedAmount: decimal.NewFromInt(1400),
		TreatmentDate:  claim.TreatmentDate,
		DecisionStatus: &approved,
		SubmittedAt:    time.Now(),
	})

	in := testInput(claim, testExtracted(models.DocPrescription, models.DocBill))
	in.History = history

	decision := Adjudicate(in)

	// Same outcome as if its earlier decision were not in the snapshot.
	assert.Equal(t, models.DecisionPartial, decision.Status)
	assert.True(t, decision.ApprovedAmount.Equal(decimal.NewFromInt(1400)),
		"own prior payout must not shrink headroom, got %s", decision.ApprovedAmount)
}

// ============================================================================
// MANUAL REVIEW TRIGGERS
// ============================================================================

func TestAdjudicate_DuplicateSameDayClaim(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	history := models.ClaimHistory{{
		ClaimID:       "CLM_EARLIER",
		EmployeeID:    "EMP001",
		ClaimAmount:   decimal.NewFromInt(1200),
		TreatmentDate: claim.TreatmentDate,
		SubmittedAt:   time.Now().AddDate(0, 0, -1),
	}}

	in := testInput(claim, testExtracted(models.DocPrescription))
	in.History = history
	decision := Adjudicate(in)

	assert.Equal(t, models.DecisionManualReview, decision.Status)
	assert.True(t, decision.ApprovedAmount.IsZero(),
		"manual review must not commit an amount")
	assert.Contains(t, decision.Reasons, models.ReasonMultipleSameDayClaims)
}

func TestAdjudicate_HighValueClaim(t *testing.T) {
	pol := customPolicy(t, time.Now().AddDate(-1, 0, 0), 50000, 50000)
	claim := testClaim(30000, models.CategoryConsultation)

	decision := Adjudicate(Input{
		Claim:     claim,
		Extracted: testExtracted(models.DocPrescription),
		Policy:    pol,
		Now:       time.Now(),
	})

	assert.Equal(t, models.DecisionManualReview, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonHighValueClaim)
}

func TestAdjudicate_LowExtractionConfidence(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.Confidence = 0.3

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionManualReview, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonLowConfidence)
}

func TestAdjudicate_InvalidDoctorRegistrationRejects(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.DoctorRegNo = "12345-BOGUS"

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionRejected, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonDoctorRegInvalid)
	assert.True(t, decision.ApprovedAmount.IsZero())
}

func TestAdjudicate_MissingDoctorRegistrationGoesToReview(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.DoctorRegNo = ""

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionManualReview, decision.Status)
	assert.Contains(t, decision.Reasons, models.ReasonMissingDoctorReg)
	assert.True(t, decision.ApprovedAmount.IsZero())
}

func TestAdjudicate_RejectionNotOverriddenByReviewTriggers(t *testing.T) {
	// A claim that both exceeds the per-claim limit and was treated twice the
	// same day must stay REJECTED: review triggers never resurrect it.
	claim := testClaim(7500, models.CategoryConsultation)
	history := models.ClaimHistory{{
		ClaimID:       "CLM_EARLIER",
		EmployeeID:    "EMP001",
		TreatmentDate: claim.TreatmentDate,
		SubmittedAt:   time.Now(),
	}}

	in := testInput(claim, testExtracted(models.DocPrescription))
	in.History = history
	decision := Adjudicate(in)

	assert.Equal(t, models.DecisionRejected, decision.Status)
}

// ============================================================================
// DECISION INVARIANTS
// ============================================================================

func TestAdjudicate_ApprovedNeverExceedsClaimAmount(t *testing.T) {
	amounts := []float64{500, 1500, 1999, 2000, 2001, 3500, 4999, 5000}
	for _, amount := range amounts {
		claim := testClaim(amount, models.CategoryConsultation)
		decision := Adjudicate(testInput(claim, testExtracted(models.DocPrescription)))

		assert.True(t, decision.ApprovedAmount.LessThanOrEqual(claim.ClaimAmount),
			"amount %v: approved %s exceeds claim", amount, decision.ApprovedAmount)
		assert.True(t, decision.ApprovedAmount.GreaterThanOrEqual(decimal.Zero))
		assert.GreaterOrEqual(t, decision.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, decision.ConfidenceScore, 1.0)
		assert.NotEmpty(t, decision.NextSteps)
	}
}

func TestAdjudicate_RegexFallbackPenalizesConfidence(t *testing.T) {
	claim := testClaim(1500, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.Confidence = 0.8
	extracted.Source = models.SourceRegexFallback

	decision := Adjudicate(testInput(claim, extracted))

	assert.Equal(t, models.DecisionApproved, decision.Status)
	assert.InDelta(t, 0.56, decision.ConfidenceScore, 1e-9,
		"regex fallback should scale 0.8 by 0.7")
}

func TestAdjudicate_Deterministic(t *testing.T) {
	claim := testClaim(3000, models.CategoryConsultation)
	in := testInput(claim, testExtracted(models.DocPrescription))
	in.Now = time.Now()

	first := Adjudicate(in)
	second := Adjudicate(in)

	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.ApprovedAmount.Equal(second.ApprovedAmount))
	assert.Equal(t, first.Reasons, second.Reasons)
	assert.Equal(t, first.ConfidenceScore, second.ConfidenceScore)
}

func TestAdjudicate_ReasonsDeduplicated(t *testing.T) {
	claim := testClaim(4000, models.CategoryConsultation)
	extracted := testExtracted(models.DocPrescription)
	extracted.ProcedureTerms = []string{"Consultation", "Cosmetic filler"}

	decision := Adjudicate(testInput(claim, extracted))

	seen := map[models.ReasonCode]bool{}
	for _, r := range decision.Reasons {
		assert.False(t, seen[r], "reason %s appears twice", r)
		seen[r] = true
	}
}
