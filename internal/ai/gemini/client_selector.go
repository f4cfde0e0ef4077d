package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"claims-service/internal/models"
)

// ClientSelector rotates extraction requests across multiple Gemini clients
// (one per API key) with automatic failover, so a rate-limited key does not
// stall claim processing.
type ClientSelector struct {
	clients      []*Client
	currentIndex int
	mutex        sync.Mutex
}

func NewClientSelector(clients []*Client) *ClientSelector {
	return &ClientSelector{clients: clients}
}

func (s *ClientSelector) nextClient() (*Client, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.clients) == 0 {
		return nil, -1
	}
	client := s.clients[s.currentIndex]
	index := s.currentIndex
	s.currentIndex = (s.currentIndex + 1) % len(s.clients)
	return client, index
}

// ExtractFacts implements extraction.StructuredExtractor, trying each client
// in round-robin order until one succeeds.
func (s *ClientSelector) ExtractFacts(ctx context.Context, text string) (models.Facts, float64, error) {
	total := len(s.clients)
	if total == 0 {
		return models.Facts{}, 0, fmt.Errorf("no Gemini clients available")
	}

	var lastErr error
	for attempt := 0; attempt < total; attempt++ {
		client, idx := s.nextClient()

		facts, confidence, err := client.ExtractClaimFacts(ctx, text)
		if err == nil {
			return facts, confidence, nil
		}
		lastErr = err
		slog.Warn("Gemini extraction failed, trying next client",
			"client_index", idx,
			"attempt", attempt+1,
			"error", err)
	}

	return models.Facts{}, 0, fmt.Errorf("all %d Gemini clients failed, last error: %w", total, lastErr)
}

func (s *ClientSelector) Close() {
	for _, c := range s.clients {
		_ = c.Close()
	}
}
