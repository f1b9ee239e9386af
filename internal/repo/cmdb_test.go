package repo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/signalmesh/causegraph/internal/cache"
)

func TestGetDependencies(t *testing.T) {
	client := NewCMDBClient("http://cmdb.local", time.Second, nil, 0, nil)
	client.httpClient = newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/v1/dependencies" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"dependencies":[{"component_id":"cache","relationship":"upstream","type":"critical","distance":1}]}`), nil
	})

	deps, err := client.GetDependencies(context.Background(), []string{"db"})
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(deps))
	}
	if deps[0].ComponentID != "cache" || deps[0].Type != "critical" || deps[0].Distance != 1 {
		t.Fatalf("dependency = %+v", deps[0])
	}
}

func TestGetDependenciesCachesResults(t *testing.T) {
	calls := 0
	client := NewCMDBClient("http://cmdb.local", time.Second, cache.NewMemoryProvider(), time.Minute, nil)
	client.httpClient = newTestHTTPClient(func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, `{"dependencies":[{"component_id":"cache","distance":1}]}`), nil
	})

	for i := 0; i < 3; i++ {
		deps, err := client.GetDependencies(context.Background(), []string{"db", "api"})
		if err != nil {
			t.Fatalf("GetDependencies: %v", err)
		}
		if len(deps) != 1 {
			t.Fatalf("expected 1 dependency, got %d", len(deps))
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single backend call, got %d", calls)
	}
}

func TestDependencyCacheKeyOrderInsensitive(t *testing.T) {
	a := dependencyCacheKey([]string{"db", "api", "cache"})
	b := dependencyCacheKey([]string{"cache", "db", "api"})
	if a != b {
		t.Fatalf("cache key must not depend on component order: %q vs %q", a, b)
	}
}

func TestGetDependenciesNoBaseURL(t *testing.T) {
	client := NewCMDBClient("", time.Second, nil, 0, nil)
	if _, err := client.GetDependencies(context.Background(), []string{"db"}); err == nil {
		t.Fatal("expected error without base URL")
	}
}
