package models

// ClaimCategory is one of the six OPD benefit categories covered by the policy.
type ClaimCategory string

const (
	CategoryConsultation ClaimCategory = "consultation"
	CategoryDiagnostic   ClaimCategory = "diagnostic"
	CategoryPharmacy     ClaimCategory = "pharmacy"
	CategoryDental       ClaimCategory = "dental"
	CategoryVision       ClaimCategory = "vision"
	CategoryAlternative  ClaimCategory = "alternative"
)

// ValidCategories lists every claim category the service accepts.
var ValidCategories = []ClaimCategory{
	CategoryConsultation,
	CategoryDiagnostic,
	CategoryPharmacy,
	CategoryDental,
	CategoryVision,
	CategoryAlternative,
}

func (c ClaimCategory) IsValid() bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// ClaimState tracks a claim through the processing pipeline. Business outcomes
// (approved, rejected, ...) live on the Decision, not here; FAILED is reserved
// for infrastructure faults and is terminal.
type ClaimState string

const (
	StateSubmitted    ClaimState = "SUBMITTED"
	StateExtracting   ClaimState = "EXTRACTING"
	StateAdjudicating ClaimState = "ADJUDICATING"
	StateDecided      ClaimState = "DECIDED"
	StateFailed       ClaimState = "FAILED"
)

// DecisionStatus is the business outcome of adjudication.
type DecisionStatus string

const (
	DecisionApproved     DecisionStatus = "APPROVED"
	DecisionRejected     DecisionStatus = "REJECTED"
	DecisionPartial      DecisionStatus = "PARTIAL"
	DecisionManualReview DecisionStatus = "MANUAL_REVIEW"
)

// ReasonCode identifies why a rule stage rejected, capped, or flagged a claim.
type ReasonCode string

const (
	ReasonInvalidClaimData       ReasonCode = "INVALID_CLAIM_DATA"
	ReasonMissingDocument        ReasonCode = "MISSING_REQUIRED_DOCUMENT"
	ReasonPartialExclusion       ReasonCode = "PARTIAL_EXCLUSION"
	ReasonFullyExcluded          ReasonCode = "FULLY_EXCLUDED_PROCEDURE"
	ReasonWaitingPeriod          ReasonCode = "WAITING_PERIOD_NOT_ELAPSED"
	ReasonPreAuthRequired        ReasonCode = "PRE_AUTHORIZATION_REQUIRED"
	ReasonExceedsPerClaimLimit   ReasonCode = "EXCEEDS_PER_CLAIM_LIMIT"
	ReasonSubLimitCapped         ReasonCode = "CATEGORY_SUBLIMIT_CAPPED"
	ReasonAnnualLimitCapped      ReasonCode = "ANNUAL_LIMIT_CAPPED"
	ReasonCopayApplied           ReasonCode = "COPAY_APPLIED"
	ReasonNetworkDiscountApplied ReasonCode = "NETWORK_DISCOUNT_APPLIED"
	ReasonMultipleSameDayClaims  ReasonCode = "MULTIPLE_SAME_DAY_CLAIMS"
	ReasonHighValueClaim         ReasonCode = "HIGH_VALUE_CLAIM"
	ReasonLowConfidence          ReasonCode = "LOW_EXTRACTION_CONFIDENCE"
	ReasonDoctorRegInvalid       ReasonCode = "DOCTOR_REG_INVALID"
	ReasonMissingDoctorReg       ReasonCode = "MISSING_DOCTOR_REG"
)

// DocumentKind classifies a supporting document found during extraction.
type DocumentKind string

const (
	DocPrescription DocumentKind = "prescription"
	DocBill         DocumentKind = "bill"
	DocReport       DocumentKind = "report"
)

// ExtractionSource records which extractor path produced the final facts.
type ExtractionSource string

const (
	SourceOCROnly       ExtractionSource = "OCR_ONLY"
	SourceLLM           ExtractionSource = "LLM"
	SourceRegexFallback ExtractionSource = "REGEX_FALLBACK"
	SourceBlended       ExtractionSource = "BLENDED"
)
