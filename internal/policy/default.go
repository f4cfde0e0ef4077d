package policy

import "time"

// Default returns the embedded PLUM_OPD_2024 policy, used when no policy
// document is configured. Mirrors the figures of the standard OPD product.
func Default() *Model {
	doc := document{
		PolicyID:       "PLUM_OPD_2024",
		EffectiveStart: time.Now().AddDate(-1, 0, 0).Format("2006-01-02"),
		Coverage: coverageDetails{
			AnnualLimit:        50000,
			PerClaimLimit:      5000,
			FamilyFloaterLimit: 150000,
			Categories: map[string]CategoryTerms{
				"consultation": {
					Covered:           true,
					SubLimit:          2000,
					CopayPercentage:   10,
					NetworkDiscount:   20,
					RequiredDocuments: []string{"prescription"},
				},
				"diagnostic": {
					Covered:           true,
					SubLimit:          10000,
					RequiredDocuments: []string{"prescription", "report"},
				},
				"pharmacy": {
					Covered:           true,
					SubLimit:          15000,
					CopayPercentage:   30,
					RequiredDocuments: []string{"prescription", "bill"},
				},
				"dental": {
					Covered:           true,
					SubLimit:          10000,
					RequiredDocuments: []string{"bill"},
				},
				"vision": {
					Covered:           true,
					SubLimit:          5000,
					RequiredDocuments: []string{"prescription"},
				},
				"alternative": {
					Covered:           true,
					SubLimit:          8000,
					RequiredDocuments: []string{"prescription"},
				},
			},
		},
		Waiting: WaitingPeriods{
			InitialDays:     30,
			PreExistingDays: 365,
			SpecificAilmentsDays: map[string]int{
				"diabetes":     90,
				"hypertension": 90,
			},
		},
		PreExistingConditions: []string{"asthma", "arthritis", "thyroid"},
		Exclusions: []string{
			"cosmetic procedures",
			"weight loss treatments",
			"infertility treatments",
			"experimental treatments",
			"self-inflicted injuries",
		},
		PreAuthProcedures: []string{"mri", "ct scan", "surgery", "hospitalization"},
		NetworkHospitals:  []string{"apollo", "fortis", "max", "manipal", "narayana"},
		Requirements: claimRequirements{
			SubmissionWindowDays:  30,
			MinimumClaimAmount:    500,
			ManualReviewThreshold: 25000,
		},
	}

	m, err := newModel(doc)
	if err != nil {
		// The embedded policy is fixed at compile time; failing validation
		// here is a programming error.
		panic(err)
	}
	return m
}
