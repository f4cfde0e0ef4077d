package adjudication

import (
	"fmt"
	"regexp"

	"claims-service/internal/models"

	"github.com/shopspring/decimal"
)

// absoluteMinimumAmount is the hard floor below which no claim is payable,
// independent of the policy's own minimum.
var absoluteMinimumAmount = decimal.NewFromInt(500)

// doctorRegPattern is the medical council registration format, e.g.
// KA/MED/54321/2015. A registration number that was extracted but does not
// match is treated as invalid.
var doctorRegPattern = regexp.MustCompile(`^[A-Z]+(?:/[A-Z]+)*/\d{4,6}/\d{4}$`)

// checkStructure validates the claim's own fields: amount floor, treatment
// date not in the future, and the policy submission window.
func (ev *evaluation) checkStructure() *models.Decision {
	claim := ev.in.Claim

	floor := ev.in.Policy.MinimumClaimAmount()
	if floor.LessThan(absoluteMinimumAmount) {
		floor = absoluteMinimumAmount
	}
	if claim.ClaimAmount.LessThan(floor) {
		return ev.reject(models.ReasonInvalidClaimData)
	}

	if claim.TreatmentDate.After(ev.in.Now) {
		return ev.reject(models.ReasonInvalidClaimData)
	}

	if window := ev.in.Policy.SubmissionWindowDays(); window > 0 {
		age := int(ev.in.Now.Sub(claim.TreatmentDate).Hours() / 24)
		if age > window {
			return ev.reject(models.ReasonInvalidClaimData)
		}
	}

	if !ev.in.Policy.IsCovered(claim.ClaimCategory) {
		return ev.reject(models.ReasonFullyExcluded)
	}
	return nil
}

// checkDocuments requires every document kind the policy demands for the
// category to have been detected during extraction.
func (ev *evaluation) checkDocuments() *models.Decision {
	for _, kind := range ev.in.Policy.RequiredDocuments(ev.in.Claim.ClaimCategory) {
		if !ev.in.Extracted.HasDocumentKind(kind) {
			return ev.reject(models.ReasonMissingDocument)
		}
	}
	if reg := ev.in.Extracted.DoctorRegNo; reg != "" && !doctorRegPattern.MatchString(reg) {
		return ev.reject(models.ReasonDoctorRegInvalid)
	}
	return nil
}

// checkExclusions rejects claims that are entirely for excluded treatments
// and applies the conservative carve-out when only part of the claim matches:
// the non-excluded residual is capped at the category sub-limit. Absent
// itemized amounts this is a documented heuristic, not exact accounting.
func (ev *evaluation) checkExclusions() *models.Decision {
	pol := ev.in.Policy
	ex := ev.in.Extracted

	excludedProcedures := 0
	for _, term := range ex.ProcedureTerms {
		if pol.IsExcluded(term) {
			excludedProcedures++
		}
	}
	diagnosisExcluded := false
	for _, term := range ex.DiagnosisTerms {
		if pol.IsExcluded(term) {
			diagnosisExcluded = true
			break
		}
	}

	switch {
	case len(ex.ProcedureTerms) > 0 && excludedProcedures == len(ex.ProcedureTerms):
		// Every procedure on the claim is excluded.
		return ev.reject(models.ReasonFullyExcluded)
	case len(ex.ProcedureTerms) == 0 && diagnosisExcluded:
		// No itemized procedures and the diagnosis itself is excluded.
		return ev.reject(models.ReasonFullyExcluded)
	case excludedProcedures > 0 || diagnosisExcluded:
		subLimit := pol.SubLimit(ev.in.Claim.ClaimCategory)
		if ev.payable.GreaterThan(subLimit) {
			ev.payable = subLimit
		}
		ev.capped = true
		ev.addReason(models.ReasonPartialExclusion)
	}
	return nil
}

// checkWaitingPeriods checks the initial, pre-existing-disease, and named
// ailment waiting periods independently; the longest unmet period is the one
// reported.
func (ev *evaluation) checkWaitingPeriods() *models.Decision {
	pol := ev.in.Policy
	waiting := pol.Waiting()
	daysSinceStart := int(ev.in.Claim.TreatmentDate.Sub(pol.EffectiveStart()).Hours() / 24)

	longestUnmet := 0
	if daysSinceStart < waiting.InitialDays {
		longestUnmet = waiting.InitialDays
	}
	for _, term := range ev.in.Extracted.DiagnosisTerms {
		if days := pol.AilmentWaitingDays(term); days > 0 && daysSinceStart < days && days > longestUnmet {
			longestUnmet = days
		}
		if pol.IsPreExistingCondition(term) && daysSinceStart < waiting.PreExistingDays && waiting.PreExistingDays > longestUnmet {
			longestUnmet = waiting.PreExistingDays
		}
	}

	if longestUnmet == 0 {
		return nil
	}
	d := ev.reject(models.ReasonWaitingPeriod)
	d.NextSteps = fmt.Sprintf(
		"A %d-day waiting period applies; only %d days have elapsed since policy start. Resubmit after it completes.",
		longestUnmet, max(daysSinceStart, 0))
	return d
}

// checkPreAuthorization rejects procedures the policy flags for advance
// approval when no pre-authorization was found in the documents.
func (ev *evaluation) checkPreAuthorization() *models.Decision {
	if ev.in.Extracted.PreAuthPresent {
		return nil
	}
	for _, term := range ev.in.Extracted.ProcedureTerms {
		if ev.in.Policy.RequiresPreAuthorization(term) {
			return ev.reject(models.ReasonPreAuthRequired)
		}
	}
	return nil
}

// checkLimits enforces, in order: the per-claim hard ceiling, the category
// sub-limit, and the annual limit accumulated from the employee's history.
func (ev *evaluation) checkLimits() *models.Decision {
	claim := ev.in.Claim
	pol := ev.in.Policy

	// The per-claim limit is a hard ceiling on the claim amount itself,
	// before any discount, not a cap-and-partial.
	if claim.ClaimAmount.GreaterThan(pol.PerClaimLimit()) {
		return ev.reject(models.ReasonExceedsPerClaimLimit)
	}

	if subLimit := pol.SubLimit(claim.ClaimCategory); ev.payable.GreaterThan(subLimit) {
		ev.payable = subLimit
		ev.capped = true
		ev.addReason(models.ReasonSubLimitCapped)
	}

	ytd := ev.in.History.ApprovedTotalInYear(ev.in.Claim.ClaimID, ev.in.Now.Year())
	headroom := pol.AnnualLimit().Sub(ytd)
	if headroom.IsNegative() {
		headroom = decimal.Zero
	}
	if ev.payable.GreaterThan(headroom) {
		ev.payable = headroom
		ev.capped = true
		ev.addReason(models.ReasonAnnualLimitCapped)
	}
	return nil
}

// applyCopayAndDiscount shapes the payable amount. Out-of-network claims bear
// the category copay; treatment at a network hospital is cashless, waiving
// the copay and applying the network discount to the amount instead.
func (ev *evaluation) applyCopayAndDiscount() *models.Decision {
	claim := ev.in.Claim
	pol := ev.in.Policy
	one := decimal.NewFromInt(1)

	if pol.IsNetworkHospital(claim.HospitalName) {
		if discount := pol.NetworkDiscountRate(claim.ClaimCategory); discount.IsPositive() {
			ev.payable = ev.payable.Mul(one.Sub(discount))
			ev.addReason(models.ReasonNetworkDiscountApplied)
		}
		return nil
	}

	if copay := pol.CopayRate(claim.ClaimCategory); copay.IsPositive() {
		ev.payable = ev.payable.Mul(one.Sub(copay))
		ev.addReason(models.ReasonCopayApplied)
	}
	return nil
}

// checkReviewTriggers runs last: it is a meta-signal for human review, not a
// monetary rule. A prior rejection short-circuits before reaching it and is
// never overridden.
func (ev *evaluation) checkReviewTriggers() *models.Decision {
	if ev.in.History.CountSameTreatmentDay(ev.in.Claim.ClaimID, ev.in.Claim.TreatmentDate) >= 1 {
		ev.review = true
		ev.addReason(models.ReasonMultipleSameDayClaims)
	}
	if ev.in.Claim.ClaimAmount.GreaterThan(ev.in.Policy.ManualReviewThreshold()) {
		ev.review = true
		ev.addReason(models.ReasonHighValueClaim)
	}
	if ev.in.Extracted.Confidence < lowConfidenceThreshold {
		ev.review = true
		ev.addReason(models.ReasonLowConfidence)
	}
	if ev.in.Extracted.DoctorRegNo == "" {
		ev.review = true
		ev.addReason(models.ReasonMissingDoctorReg)
	}
	return nil
}
