package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/signalmesh/causegraph/internal/cache"
	"github.com/signalmesh/causegraph/internal/utils"
)

// Dependency is one CMDB dependency record for an affected component.
// Distance is the number of hops in the dependency graph.
type Dependency struct {
	ComponentID  string `json:"component_id"`
	Relationship string `json:"relationship"`
	Type         string `json:"type"`
	Distance     int    `json:"distance"`
}

// CMDBClient wraps the configuration management database's dependency API
// with read-through caching, since dependency topology changes slowly.
type CMDBClient struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Provider
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewCMDBClient constructs a CMDB client.
func NewCMDBClient(baseURL string, timeout time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration, logger *slog.Logger) *CMDBClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CMDBClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheProvider,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// GetDependencies returns the dependency set reachable from the supplied
// components.
func (c *CMDBClient) GetDependencies(ctx context.Context, componentIDs []string) ([]Dependency, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("cmdb base URL not configured")
	}

	key := dependencyCacheKey(componentIDs)
	if data, err := c.cache.Get(ctx, key); err == nil {
		var deps []Dependency
		if err := json.Unmarshal(data, &deps); err == nil {
			return deps, nil
		}
		c.logger.Debug("discarding undecodable cmdb cache entry", slog.String("key", key))
	}

	payload := map[string][]string{"component_ids": componentIDs}
	var response struct {
		Dependencies []Dependency `json:"dependencies"`
	}
	if err := postJSON(ctx, c.httpClient, joinURL(c.baseURL, "/api/v1/dependencies"), payload, &response); err != nil {
		return nil, utils.NewAppError("cmdb.GetDependencies", "dependencies request failed", err)
	}

	if c.cacheTTL > 0 {
		if data, err := json.Marshal(response.Dependencies); err == nil {
			if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
				c.logger.Debug("cmdb cache write failed", slog.Any("error", err))
			}
		}
	}
	return response.Dependencies, nil
}

func dependencyCacheKey(componentIDs []string) string {
	ids := append([]string(nil), componentIDs...)
	sort.Strings(ids)
	return "causegraph:cmdb:deps:" + strings.Join(ids, ",")
}
