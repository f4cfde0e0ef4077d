package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"claims-service/internal/models"
)

// DefaultLLMThreshold is the minimum LLM confidence at which its structured
// output is preferred over the regex fallback.
const DefaultLLMThreshold = 0.5

// Merger reconciles the extractor outputs into one ExtractedClaimData with a
// blended confidence. Any of the OCR or LLM collaborators may be nil
// (feature-flagged absent); the regex fallback is always available.
type Merger struct {
	ocr          TextRecognizer
	llm          StructuredExtractor
	fallback     StructuredExtractor
	llmThreshold float64
	timeout      time.Duration
}

func NewMerger(ocr TextRecognizer, llm StructuredExtractor, llmThreshold float64, timeout time.Duration) *Merger {
	if llmThreshold <= 0 || llmThreshold > 1 {
		llmThreshold = DefaultLLMThreshold
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Merger{
		ocr:          ocr,
		llm:          llm,
		fallback:     NewRegexExtractor(),
		llmThreshold: llmThreshold,
		timeout:      timeout,
	}
}

// Extract runs OCR over the documents, picks a structured extractor, and
// blends confidences. It never returns an error: every failure mode degrades
// to lower confidence.
func (m *Merger) Extract(ctx context.Context, docs []Document) models.ExtractedClaimData {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	text, ocrConfidence := m.recognizeAll(ctx, docs)
	if strings.TrimSpace(text) == "" {
		// Nothing readable: the engine still runs and classifies on
		// amount/category alone.
		return models.ExtractedClaimData{Confidence: 0, Source: models.SourceOCROnly}
	}

	facts, structuredConfidence, source := m.structuredFacts(ctx, text)

	// OCR quality floors the blended confidence: structured facts can never
	// be more trustworthy than the text they were read from.
	blended := structuredConfidence
	if ocrConfidence < blended {
		blended = ocrConfidence
		if source == models.SourceLLM {
			source = models.SourceBlended
		}
	}

	return models.ExtractedClaimData{
		Facts:      facts,
		Confidence: blended,
		Source:     source,
	}
}

// recognizeAll reads text out of every document and averages per-document
// confidences, mirroring how multi-page submissions are scored. Plain-text
// documents bypass OCR entirely.
func (m *Merger) recognizeAll(ctx context.Context, docs []Document) (string, float64) {
	var parts []string
	var confidenceSum float64
	recognized := 0
	for _, doc := range docs {
		text, confidence, err := m.recognizeOne(ctx, doc)
		if err != nil {
			slog.Warn("OCR failed for document, degrading", "document", doc.Name, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== Document: %s ===\n%s", doc.Name, text))
		confidenceSum += confidence
		recognized++
	}
	if recognized == 0 {
		return "", 0
	}
	return strings.Join(parts, "\n\n"), confidenceSum / float64(recognized)
}

func (m *Merger) recognizeOne(ctx context.Context, doc Document) (string, float64, error) {
	if strings.HasPrefix(doc.MimeType, "text/") || strings.HasSuffix(strings.ToLower(doc.Name), ".txt") {
		return string(doc.Content), 1.0, nil
	}
	if m.ocr == nil {
		return "", 0, nil
	}
	return m.ocr.Recognize(ctx, doc.Content, doc.MimeType)
}

func (m *Merger) structuredFacts(ctx context.Context, text string) (models.Facts, float64, models.ExtractionSource) {
	if m.llm != nil {
		facts, confidence, err := m.llm.ExtractFacts(ctx, text)
		if err != nil {
			slog.Warn("LLM extraction unavailable, using regex fallback", "error", err)
		} else if confidence >= m.llmThreshold {
			return facts, confidence, models.SourceLLM
		} else {
			slog.Info("LLM extraction below threshold, using regex fallback",
				"llm_confidence", confidence, "threshold", m.llmThreshold)
		}
	}

	facts, confidence, _ := m.fallback.ExtractFacts(ctx, text)
	return facts, confidence, models.SourceRegexFallback
}
