// Package adjudication implements the claim rule engine: a pure, deterministic
// evaluation of extracted claim facts against the policy, expressed as an
// ordered pipeline of rule stages. Stages either terminate with a final
// decision or annotate the running evaluation and continue.
package adjudication

import (
	"time"

	"claims-service/internal/models"
	"claims-service/internal/policy"

	"github.com/shopspring/decimal"
)

// Confidence penalties applied at finalization.
const (
	regexFallbackPenalty   = 0.7
	downgradePenalty       = 0.9
	lowConfidenceThreshold = 0.5
)

// Input carries everything one adjudication needs. The engine performs no I/O
// and is safe for concurrent use; Now is injected so results are reproducible.
type Input struct {
	Claim     *models.Claim
	Extracted models.ExtractedClaimData
	Policy    *policy.Model
	History   models.ClaimHistory
	Now       time.Time
}

// evaluation is the mutable context threaded through the rule stages.
type evaluation struct {
	in      Input
	payable decimal.Decimal
	reasons []models.ReasonCode

	// capped marks a monetary downgrade (exclusion carve-out or limit cap),
	// which forces PARTIAL; copay and network discount alone do not.
	capped bool

	// review marks a meta-signal that forces MANUAL_REVIEW at finalization.
	review bool
}

// stage is one rule step. A non-nil decision short-circuits the pipeline.
type stage struct {
	name string
	run  func(*evaluation) *models.Decision
}

func stages() []stage {
	return []stage{
		{"structural_validation", (*evaluation).checkStructure},
		{"document_completeness", (*evaluation).checkDocuments},
		{"exclusions", (*evaluation).checkExclusions},
		{"waiting_periods", (*evaluation).checkWaitingPeriods},
		{"pre_authorization", (*evaluation).checkPreAuthorization},
		{"limits", (*evaluation).checkLimits},
		{"copay_discount", (*evaluation).applyCopayAndDiscount},
		{"duplicate_detection", (*evaluation).checkReviewTriggers},
	}
}

// Adjudicate evaluates one claim and always returns a decision. Rejections,
// partial approvals, and manual-review outcomes are decisions, not errors.
func Adjudicate(in Input) *models.Decision {
	ev := &evaluation{
		in:      in,
		payable: in.Claim.ClaimAmount,
	}
	for _, s := range stages() {
		if d := s.run(ev); d != nil {
			return d
		}
	}
	return ev.finalize()
}

// addReason appends a reason code, suppressing duplicates while preserving
// first-occurrence order.
func (ev *evaluation) addReason(code models.ReasonCode) {
	for _, r := range ev.reasons {
		if r == code {
			return
		}
	}
	ev.reasons = append(ev.reasons, code)
}

// reject builds a terminal REJECTED decision carrying the reasons accumulated
// so far plus the given one.
func (ev *evaluation) reject(code models.ReasonCode) *models.Decision {
	ev.addReason(code)
	return &models.Decision{
		ClaimID:         ev.in.Claim.ClaimID,
		Status:          models.DecisionRejected,
		ApprovedAmount:  decimal.Zero,
		ConfidenceScore: ev.confidence(),
		Reasons:         ev.reasons,
		NextSteps:       nextSteps(models.DecisionRejected, ev.reasons),
	}
}

func (ev *evaluation) finalize() *models.Decision {
	claim := ev.in.Claim

	var status models.DecisionStatus
	amount := ev.payable.Round(2)
	switch {
	case ev.review:
		status = models.DecisionManualReview
		amount = decimal.Zero
	case ev.payable.LessThanOrEqual(decimal.Zero):
		status = models.DecisionRejected
		amount = decimal.Zero
	case ev.capped && ev.payable.LessThan(claim.ClaimAmount):
		status = models.DecisionPartial
	default:
		status = models.DecisionApproved
	}

	return &models.Decision{
		ClaimID:         claim.ClaimID,
		Status:          status,
		ApprovedAmount:  amount,
		ConfidenceScore: ev.confidence(),
		Reasons:         ev.reasons,
		NextSteps:       nextSteps(status, ev.reasons),
	}
}

// confidence scales the extraction confidence by the fallback-extractor
// penalty and by a smaller penalty whenever a downgrade or review reason
// fired, reflecting uncertainty in the rule application itself.
func (ev *evaluation) confidence() float64 {
	c := ev.in.Extracted.Confidence
	if ev.in.Extracted.Source == models.SourceRegexFallback {
		c *= regexFallbackPenalty
	}
	if ev.capped || ev.review {
		c *= downgradePenalty
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// nextSteps renders claimant guidance from the final status and the first
// decisive reason.
func nextSteps(status models.DecisionStatus, reasons []models.ReasonCode) string {
	if status == models.DecisionManualReview {
		return "Your claim has been flagged for manual review. Our team will contact you within 2-3 business days."
	}
	for _, r := range reasons {
		if msg, ok := reasonGuidance[r]; ok {
			return msg
		}
	}
	switch status {
	case models.DecisionApproved:
		return "Your claim has been approved. The amount will be credited within 3-5 business days."
	case models.DecisionPartial:
		return "Your claim has been partially approved after policy limits were applied."
	default:
		return "Please review the rejection reasons and resubmit with corrected documentation."
	}
}

var reasonGuidance = map[models.ReasonCode]string{
	models.ReasonInvalidClaimData:     "Check the claim amount and treatment date, then resubmit within the policy submission window.",
	models.ReasonMissingDocument:      "Resubmit with the required supporting documents for this claim category.",
	models.ReasonFullyExcluded:        "This treatment is in the policy exclusions list and is not payable.",
	models.ReasonWaitingPeriod:        "The applicable waiting period has not elapsed yet. Resubmit after it completes.",
	models.ReasonPreAuthRequired:      "Obtain pre-authorization for this procedure and resubmit the claim.",
	models.ReasonExceedsPerClaimLimit: "The claim exceeds the per-claim limit of your policy and cannot be processed.",
	models.ReasonAnnualLimitCapped:    "The approved amount was capped at your remaining annual limit.",
	models.ReasonSubLimitCapped:       "The approved amount was capped at the category sub-limit.",
	models.ReasonPartialExclusion:     "Excluded line items were removed from the payable amount.",
	models.ReasonDoctorRegInvalid:     "The doctor's registration number on the prescription is not a valid medical council registration. Resubmit with a corrected prescription.",
}
