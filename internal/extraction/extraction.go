// Package extraction turns raw claim documents into structured claim facts.
// Three producers feed the merger: an external OCR engine for raw text, an
// LLM extractor for structured facts, and a pure regex fallback. Extractors
// never fail the pipeline: unreadable input degrades to empty facts with
// confidence 0.
package extraction

import (
	"context"

	"claims-service/internal/models"
)

// Document is one fetched claim document ready for text recognition.
type Document struct {
	Name     string
	MimeType string
	Content  []byte
}

// TextRecognizer is the boundary contract of the external OCR engine.
type TextRecognizer interface {
	Recognize(ctx context.Context, content []byte, mimeType string) (text string, confidence float64, err error)
}

// StructuredExtractor produces claim facts from recognized text. The LLM
// client implements this; the regex extractor is the always-available
// substitute.
type StructuredExtractor interface {
	ExtractFacts(ctx context.Context, text string) (models.Facts, float64, error)
}
