// Package policy loads the active OPD policy document into an immutable
// in-memory model. The model is loaded once at process start and shared
// across all concurrent adjudications without locking.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"claims-service/internal/apperrors"
	"claims-service/internal/models"

	"github.com/shopspring/decimal"
)

// CategoryTerms holds the per-category coverage block of the policy document.
type CategoryTerms struct {
	Covered           bool     `json:"covered"`
	SubLimit          float64  `json:"sub_limit"`
	CopayPercentage   float64  `json:"copay_percentage"`
	NetworkDiscount   float64  `json:"network_discount"`
	RequiredDocuments []string `json:"required_documents"`
}

// WaitingPeriods holds the waiting-period day counts of the policy document.
type WaitingPeriods struct {
	InitialDays          int            `json:"initial_days"`
	PreExistingDays      int            `json:"pre_existing_disease_days"`
	SpecificAilmentsDays map[string]int `json:"specific_ailments"`
}

type coverageDetails struct {
	AnnualLimit        float64                  `json:"annual_limit"`
	PerClaimLimit      float64                  `json:"per_claim_limit"`
	FamilyFloaterLimit float64                  `json:"family_floater_limit"`
	Categories         map[string]CategoryTerms `json:"categories"`
}

type claimRequirements struct {
	SubmissionWindowDays  int     `json:"submission_window_days"`
	MinimumClaimAmount    float64 `json:"minimum_claim_amount"`
	ManualReviewThreshold float64 `json:"manual_review_threshold"`
}

type document struct {
	PolicyID              string            `json:"policy_id"`
	EffectiveStart        string            `json:"effective_start"`
	Coverage              coverageDetails   `json:"coverage_details"`
	Waiting               WaitingPeriods    `json:"waiting_periods"`
	PreExistingConditions []string          `json:"pre_existing_conditions"`
	Exclusions            []string          `json:"exclusions"`
	PreAuthProcedures     []string          `json:"pre_authorization_procedures"`
	NetworkHospitals      []string          `json:"network_hospitals"`
	Requirements          claimRequirements `json:"claim_requirements"`
}

// Model is the validated, read-only policy representation.
type Model struct {
	doc            document
	effectiveStart time.Time
}

// Load reads and validates a policy document from disk. A missing file falls
// back to the embedded default policy; a present-but-invalid document is a
// configuration error and the process must not serve traffic.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, apperrors.Config("reading policy document", err)
	}

	return Parse(raw)
}

// Parse validates a policy document held in memory.
func Parse(raw []byte) (*Model, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Config("parsing policy document", err)
	}
	return newModel(doc)
}

func newModel(doc document) (*Model, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	start, err := time.Parse("2006-01-02", doc.EffectiveStart)
	if err != nil {
		return nil, apperrors.Config(fmt.Sprintf("invalid effective_start %q", doc.EffectiveStart), err)
	}
	return &Model{doc: doc, effectiveStart: start}, nil
}

func validate(doc document) error {
	fail := func(format string, args ...any) error {
		return apperrors.Config(fmt.Sprintf(format, args...), nil)
	}

	if doc.PolicyID == "" {
		return fail("policy_id is required")
	}
	if doc.EffectiveStart == "" {
		return fail("effective_start is required")
	}
	for name, limit := range map[string]float64{
		"annual_limit":         doc.Coverage.AnnualLimit,
		"per_claim_limit":      doc.Coverage.PerClaimLimit,
		"family_floater_limit": doc.Coverage.FamilyFloaterLimit,
		"minimum_claim_amount": doc.Requirements.MinimumClaimAmount,
	} {
		if limit < 0 {
			return fail("%s must be non-negative, got %v", name, limit)
		}
	}
	if doc.Coverage.AnnualLimit == 0 || doc.Coverage.PerClaimLimit == 0 {
		return fail("annual_limit and per_claim_limit are required")
	}
	if len(doc.Coverage.Categories) == 0 {
		return fail("coverage_details.categories is required")
	}
	for name, terms := range doc.Coverage.Categories {
		if !models.ClaimCategory(name).IsValid() {
			return fail("unknown claim category %q", name)
		}
		if terms.SubLimit < 0 {
			return fail("sub_limit for %s must be non-negative", name)
		}
		if terms.CopayPercentage < 0 || terms.CopayPercentage > 100 {
			return fail("copay_percentage for %s must be within [0,100]", name)
		}
		if terms.NetworkDiscount < 0 || terms.NetworkDiscount > 100 {
			return fail("network_discount for %s must be within [0,100]", name)
		}
	}
	if doc.Waiting.InitialDays < 0 || doc.Waiting.PreExistingDays < 0 {
		return fail("waiting periods must be non-negative")
	}
	for ailment, days := range doc.Waiting.SpecificAilmentsDays {
		if days < 0 {
			return fail("waiting period for %s must be non-negative", ailment)
		}
	}
	if doc.Requirements.SubmissionWindowDays < 0 {
		return fail("submission_window_days must be non-negative")
	}
	return nil
}

func (m *Model) PolicyID() string          { return m.doc.PolicyID }
func (m *Model) EffectiveStart() time.Time { return m.effectiveStart }

func (m *Model) AnnualLimit() decimal.Decimal {
	return decimal.NewFromFloat(m.doc.Coverage.AnnualLimit)
}

func (m *Model) PerClaimLimit() decimal.Decimal {
	return decimal.NewFromFloat(m.doc.Coverage.PerClaimLimit)
}

func (m *Model) MinimumClaimAmount() decimal.Decimal {
	return decimal.NewFromFloat(m.doc.Requirements.MinimumClaimAmount)
}

func (m *Model) ManualReviewThreshold() decimal.Decimal {
	if m.doc.Requirements.ManualReviewThreshold <= 0 {
		return decimal.NewFromInt(25000)
	}
	return decimal.NewFromFloat(m.doc.Requirements.ManualReviewThreshold)
}

func (m *Model) SubmissionWindowDays() int {
	return m.doc.Requirements.SubmissionWindowDays
}

// IsCovered reports whether the category is covered at all.
func (m *Model) IsCovered(category models.ClaimCategory) bool {
	terms, ok := m.doc.Coverage.Categories[string(category)]
	return ok && terms.Covered
}

// SubLimit returns the category cap, falling back to the per-claim limit for
// a category without its own sub-limit.
func (m *Model) SubLimit(category models.ClaimCategory) decimal.Decimal {
	if terms, ok := m.doc.Coverage.Categories[string(category)]; ok && terms.SubLimit > 0 {
		return decimal.NewFromFloat(terms.SubLimit)
	}
	return m.PerClaimLimit()
}

// CopayRate returns the category copay as a fraction in [0,1].
func (m *Model) CopayRate(category models.ClaimCategory) decimal.Decimal {
	if terms, ok := m.doc.Coverage.Categories[string(category)]; ok {
		return decimal.NewFromFloat(terms.CopayPercentage).Div(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// NetworkDiscountRate returns the category network discount as a fraction.
func (m *Model) NetworkDiscountRate(category models.ClaimCategory) decimal.Decimal {
	if terms, ok := m.doc.Coverage.Categories[string(category)]; ok {
		return decimal.NewFromFloat(terms.NetworkDiscount).Div(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

// RequiredDocuments lists the document kinds a category claim must include.
func (m *Model) RequiredDocuments(category models.ClaimCategory) []models.DocumentKind {
	terms, ok := m.doc.Coverage.Categories[string(category)]
	if !ok {
		return nil
	}
	kinds := make([]models.DocumentKind, 0, len(terms.RequiredDocuments))
	for _, d := range terms.RequiredDocuments {
		kinds = append(kinds, models.DocumentKind(d))
	}
	return kinds
}

// Waiting returns the waiting-period configuration.
func (m *Model) Waiting() WaitingPeriods { return m.doc.Waiting }

// IsPreExistingCondition reports whether the diagnosis term names a condition
// the policy treats as pre-existing.
func (m *Model) IsPreExistingCondition(term string) bool {
	lower := strings.ToLower(term)
	for _, cond := range m.doc.PreExistingConditions {
		if strings.Contains(lower, strings.ToLower(cond)) {
			return true
		}
	}
	return false
}

// AilmentWaitingDays returns the named-ailment waiting period matching the
// diagnosis term, or 0 when none applies.
func (m *Model) AilmentWaitingDays(term string) int {
	lower := strings.ToLower(term)
	for ailment, days := range m.doc.Waiting.SpecificAilmentsDays {
		if strings.Contains(lower, strings.ToLower(ailment)) {
			return days
		}
	}
	return 0
}

// exclusionSynonyms expands the short exclusion tags of the policy document
// into the phrasing that actually appears on prescriptions and bills.
var exclusionSynonyms = map[string][]string{
	"cosmetic":       {"cosmetic", "beauty", "whitening", "bleaching", "aesthetic", "veneer"},
	"weight loss":    {"weight loss", "slimming", "obesity", "bariatric"},
	"infertility":    {"infertility", "ivf", "fertility"},
	"experimental":   {"experimental", "trial", "investigational"},
	"self-inflicted": {"self-inflicted", "suicide attempt"},
}

// IsExcluded reports whether a diagnosis or procedure term matches a policy
// exclusion entry, by substring in either direction or via the synonym table.
func (m *Model) IsExcluded(term string) bool {
	lower := strings.ToLower(term)
	if lower == "" {
		return false
	}
	for _, excl := range m.doc.Exclusions {
		exclLower := strings.ToLower(excl)
		if strings.Contains(lower, exclLower) || strings.Contains(exclLower, lower) {
			return true
		}
		for key, words := range exclusionSynonyms {
			if !strings.Contains(exclLower, key) {
				continue
			}
			for _, w := range words {
				if strings.Contains(lower, w) {
					return true
				}
			}
		}
	}
	return false
}

// RequiresPreAuthorization reports whether a procedure term is on the policy's
// pre-authorization list (MRI, CT scan, surgery, ...).
func (m *Model) RequiresPreAuthorization(term string) bool {
	lower := strings.ToLower(term)
	for _, proc := range m.doc.PreAuthProcedures {
		if strings.Contains(lower, strings.ToLower(proc)) {
			return true
		}
	}
	return false
}

// IsNetworkHospital matches the hospital name against the network list,
// case-insensitively and by substring (hospital names on bills carry branch
// suffixes).
func (m *Model) IsNetworkHospital(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return false
	}
	for _, h := range m.doc.NetworkHospitals {
		if strings.Contains(lower, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
