package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/signalmesh/causegraph/internal/cache"
	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/utils"
)

// KnowledgeClient wraps the knowledge base holding resolved historical
// cases. Lookups are cached briefly; the underlying corpus changes rarely
// within one incident.
type KnowledgeClient struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Provider
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewKnowledgeClient constructs a knowledge base client.
func NewKnowledgeClient(baseURL string, timeout time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) *KnowledgeClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheProvider,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// SimilarHistoricalCases returns past cases resembling the event, ordered by
// similarity descending, at most maxResults entries.
func (c *KnowledgeClient) SimilarHistoricalCases(ctx context.Context, event models.Event, maxResults int) ([]models.HistoricalCase, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("knowledge base URL not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	key := fmt.Sprintf("causegraph:kb:cases:%s:%d", event.EventID, maxResults)
	if data, err := c.cache.Get(ctx, key); err == nil {
		var cases []models.HistoricalCase
		if err := json.Unmarshal(data, &cases); err == nil {
			return cases, nil
		}
		c.logger.Debug("discarding undecodable knowledge cache entry", slog.String("key", key))
	}

	payload := map[string]any{
		"title":       event.Title,
		"description": event.Description,
		"event_type":  event.EventType,
		"components":  event.AffectedComponents,
		"max_results": maxResults,
	}
	var response struct {
		Cases []models.HistoricalCase `json:"cases"`
	}
	if err := postJSON(ctx, c.httpClient, joinURL(c.baseURL, "/api/v1/cases/similar"), payload, &response); err != nil {
		return nil, utils.NewAppError("knowledge.SimilarHistoricalCases", "similar cases request failed", err)
	}

	if c.cacheTTL > 0 {
		if data, err := json.Marshal(response.Cases); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
				c.logger.Debug("knowledge cache write failed", slog.Any("error", err))
			}
		}
	}
	return response.Cases, nil
}
