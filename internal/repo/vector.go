package repo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/utils"
)

// SimilarEvent pairs an event with its similarity to the search text.
type SimilarEvent struct {
	Event      models.Event `json:"event"`
	Similarity float64      `json:"similarity"`
}

// VectorSearchClient wraps the mem0-style vector similarity service used for
// semantic event matching.
type VectorSearchClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limit      int
}

// NewVectorSearchClient constructs a similarity search client. limit bounds
// how many matches one search may return; zero uses the server default.
func NewVectorSearchClient(baseURL, apiKey string, timeout time.Duration, limit int) *VectorSearchClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &VectorSearchClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limit:      limit,
	}
}

// SearchSimilarEvents returns events semantically similar to the text.
func (c *VectorSearchClient) SearchSimilarEvents(ctx context.Context, text string) ([]SimilarEvent, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("vector search base URL not configured")
	}

	payload := map[string]any{"query": text}
	if c.limit > 0 {
		payload["limit"] = c.limit
	}
	if c.apiKey != "" {
		payload["api_key"] = c.apiKey
	}

	var response struct {
		Results []SimilarEvent `json:"results"`
	}
	if err := postJSON(ctx, c.httpClient, joinURL(c.baseURL, "/api/v1/search"), payload, &response); err != nil {
		return nil, utils.NewAppError("vectorsearch.SearchSimilarEvents", "search request failed", err)
	}
	return response.Results, nil
}
