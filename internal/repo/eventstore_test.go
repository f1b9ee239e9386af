package repo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/signalmesh/causegraph/internal/utils"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestHTTPClient(fn roundTripFunc) *http.Client {
	return &http.Client{Transport: fn}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestGetEvent(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	client := NewEventStoreClient("http://events.local", time.Second)
	client.httpClient = newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"event":{"event_id":"ev-1","title":"db down","severity":"critical"}}`), nil
	})

	event, err := client.GetEvent(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if gotPath != "/api/v1/events/get" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotBody["event_id"] != "ev-1" {
		t.Fatalf("request body = %v", gotBody)
	}
	if event == nil || event.EventID != "ev-1" {
		t.Fatalf("event = %+v", event)
	}
}

func TestGetEventMissing(t *testing.T) {
	client := NewEventStoreClient("http://events.local", time.Second)
	client.httpClient = newTestHTTPClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"event":null}`), nil
	})

	event, err := client.GetEvent(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if event != nil {
		t.Fatalf("missing event must yield nil, got %+v", event)
	}
}

func TestGetEventServerError(t *testing.T) {
	client := NewEventStoreClient("http://events.local", time.Second)
	client.httpClient = newTestHTTPClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, "boom"), nil
	})

	_, err := client.GetEvent(context.Background(), "ev-1")
	if err == nil {
		t.Fatal("expected error on 5xx")
	}

	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("collaborator failures must be AppErrors, got %T", err)
	}
	if appErr.Op != "eventstore.GetEvent" {
		t.Fatalf("op = %q", appErr.Op)
	}
}

func TestGetEventNoBaseURL(t *testing.T) {
	client := NewEventStoreClient("", time.Second)
	if _, err := client.GetEvent(context.Background(), "ev-1"); err == nil {
		t.Fatal("expected error without base URL")
	}
}

func TestGetEventsInRange(t *testing.T) {
	var gotBody map[string]string
	client := NewEventStoreClient("http://events.local/", time.Second)
	client.httpClient = newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/v1/events/range" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"events":[{"event_id":"ev-1"},{"event_id":"ev-2"}]}`), nil
	})

	start := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	events, err := client.GetEventsInRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("GetEventsInRange: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if gotBody["start"] != "2026-03-14T11:00:00Z" || gotBody["end"] != "2026-03-14T13:00:00Z" {
		t.Fatalf("request body = %v", gotBody)
	}
}

func TestGetEventsForComponent(t *testing.T) {
	client := NewEventStoreClient("http://events.local", time.Second)
	client.httpClient = newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/v1/events/by-component" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"events":[{"event_id":"ev-9"}]}`), nil
	})

	events, err := client.GetEventsForComponent(context.Background(), "db")
	if err != nil {
		t.Fatalf("GetEventsForComponent: %v", err)
	}
	if len(events) != 1 || events[0].EventID != "ev-9" {
		t.Fatalf("events = %+v", events)
	}
}
