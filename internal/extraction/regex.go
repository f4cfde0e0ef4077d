package extraction

import (
	"context"
	"regexp"
	"strings"

	"claims-service/internal/models"
)

// RegexExtractor is the dependency-free fallback when the LLM extractor is
// unavailable or low-confidence. It recovers the high-signal fields medical
// documents carry in predictable positions.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor { return &RegexExtractor{} }

var (
	patientPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)patient\s*(?:name)?[:\s]+([A-Za-z][A-Za-z .]+)`),
		regexp.MustCompile(`(?i)\bmrs?\.?\s+([A-Za-z][A-Za-z .]+)`),
	}
	doctorPattern   = regexp.MustCompile(`(?i)\bdr\.?\s+([A-Za-z][A-Za-z .]+)`)
	regNoPattern    = regexp.MustCompile(`\b([A-Z]+(?:/[A-Z]+)*/\d{4,6}/\d{4})\b`)
	hospitalPattern = regexp.MustCompile(`(?i)(?:hospital|clinic|medical cent(?:re|er))[:\s]*([A-Za-z][A-Za-z &.]+)?`)

	diagnosisPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)diagnosis[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)complaints?[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)c/o[:\s]+([^\n]+)`),
	}
	rxBlockPattern = regexp.MustCompile(`(?is)\brx[:\s]*(.+?)(?:advice|follow.?up|next visit|\z)`)
	testsPattern   = regexp.MustCompile(`(?i)(?:tests?|investigations?|advised)[:\s]+([^\n]+)`)
	preAuthPattern = regexp.MustCompile(`(?i)pre.?auth(?:orization)?\s*(?:no|number|code|ref|approved|approval)`)

	prescriptionMarkers = regexp.MustCompile(`(?i)\brx\b|prescription|prescribed`)
	billMarkers         = regexp.MustCompile(`(?i)invoice|\bbill\b|receipt|amount payable|total\s*amount`)
	reportMarkers       = regexp.MustCompile(`(?i)\breport\b|laboratory|lab results|test results|findings`)
)

// ExtractFacts parses recognized text with the pattern set above. Confidence
// grows with the number of distinct fields found and is capped below the LLM
// range so a good LLM result always wins the merge.
func (e *RegexExtractor) ExtractFacts(_ context.Context, text string) (models.Facts, float64, error) {
	if strings.TrimSpace(text) == "" {
		return models.Facts{}, 0, nil
	}

	var facts models.Facts

	for _, p := range patientPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			facts.PatientName = cleanTerm(m[1])
			break
		}
	}
	if m := doctorPattern.FindStringSubmatch(text); m != nil {
		facts.DoctorName = cleanTerm(m[1])
	}
	if m := regNoPattern.FindStringSubmatch(text); m != nil {
		facts.DoctorRegNo = m[1]
	}
	if m := hospitalPattern.FindStringSubmatch(text); m != nil && len(m) > 1 && m[1] != "" {
		facts.HospitalName = cleanTerm(m[1])
	}

	for _, p := range diagnosisPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			facts.DiagnosisTerms = splitTerms(m[1])
			break
		}
	}

	if m := rxBlockPattern.FindStringSubmatch(text); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = cleanTerm(line)
			if line == "" {
				continue
			}
			facts.ProcedureTerms = append(facts.ProcedureTerms, line)
			if len(facts.ProcedureTerms) >= 10 {
				break
			}
		}
	}
	if m := testsPattern.FindStringSubmatch(text); m != nil {
		facts.ProcedureTerms = append(facts.ProcedureTerms, splitTerms(m[1])...)
	}

	facts.PreAuthPresent = preAuthPattern.MatchString(text)
	facts.DocumentKinds = detectDocumentKinds(text)

	fieldsFound := 0
	for _, found := range []bool{
		facts.PatientName != "",
		facts.DoctorName != "",
		facts.DoctorRegNo != "",
		len(facts.DiagnosisTerms) > 0,
		len(facts.DocumentKinds) > 0,
	} {
		if found {
			fieldsFound++
		}
	}
	confidence := 0.3 + float64(fieldsFound)*0.12
	if confidence > 0.85 {
		confidence = 0.85
	}
	return facts, confidence, nil
}

func detectDocumentKinds(text string) []models.DocumentKind {
	var kinds []models.DocumentKind
	if prescriptionMarkers.MatchString(text) {
		kinds = append(kinds, models.DocPrescription)
	}
	if billMarkers.MatchString(text) {
		kinds = append(kinds, models.DocBill)
	}
	if reportMarkers.MatchString(text) {
		kinds = append(kinds, models.DocReport)
	}
	return kinds
}

func cleanTerm(s string) string {
	return strings.Trim(strings.TrimSpace(s), "-•*.,;")
}

func splitTerms(s string) []string {
	var terms []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if t := cleanTerm(part); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
