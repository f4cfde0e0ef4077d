package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OCRClient talks to an external OCR engine over HTTP. The engine is treated
// as possibly absent: a nil client (no endpoint configured) contributes
// confidence 0 and downstream extractors work off empty text.
type OCRClient struct {
	endpoint string
	client   *http.Client
}

// NewOCRClient returns nil when no endpoint is configured, which callers
// treat as "OCR unavailable".
func NewOCRClient(endpoint string, timeout time.Duration) *OCRClient {
	if endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OCRClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type ocrResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognize submits document bytes to the OCR engine and returns the
// recognized text with the engine's confidence in [0,1].
func (c *OCRClient) Recognize(ctx context.Context, content []byte, mimeType string) (string, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(content))
	if err != nil {
		return "", 0, fmt.Errorf("building OCR request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("calling OCR engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("OCR engine returned status %d", resp.StatusCode)
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decoding OCR response: %w", err)
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return out.Text, out.Confidence, nil
}
