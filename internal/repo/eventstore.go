package repo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/utils"
)

// EventStoreClient wraps the event/alert collector's query API.
type EventStoreClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewEventStoreClient constructs a client targeting the configured event
// store instance.
func NewEventStoreClient(baseURL string, timeout time.Duration) *EventStoreClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EventStoreClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetEvent fetches a single event by id. A missing event yields (nil, nil).
func (c *EventStoreClient) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("event store base URL not configured")
	}

	var response struct {
		Event *models.Event `json:"event"`
	}
	payload := map[string]string{"event_id": eventID}
	if err := postJSON(ctx, c.httpClient, joinURL(c.baseURL, "/api/v1/events/get"), payload, &response); err != nil {
		return nil, utils.NewAppError("eventstore.GetEvent", "get request failed", err)
	}
	return response.Event, nil
}

// GetEventsInRange fetches events with timestamps inside [start, end].
func (c *EventStoreClient) GetEventsInRange(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("event store base URL not configured")
	}

	payload := map[string]string{
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	}
	var response struct {
		Events []models.Event `json:"events"`
	}
	if err := postJSON(ctx, c.httpClient, joinURL(c.baseURL, "/api/v1/events/range"), payload, &response); err != nil {
		return nil, utils.NewAppError("eventstore.GetEventsInRange", "range request failed", err)
	}
	return response.Events, nil
}

// GetEventsForComponent fetches events affecting the given component.
func (c *EventStoreClient) GetEventsForComponent(ctx context.Context, componentID string) ([]models.Event, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("event store base URL not configured")
	}

	payload := map[string]string{"component_id": componentID}
	var response struct {
		Events []models.Event `json:"events"`
	}
	if err := postJSON(ctx, c.httpClient, joinURL(c.baseURL, "/api/v1/events/by-component"), payload, &response); err != nil {
		return nil, utils.NewAppError("eventstore.GetEventsForComponent", "component request failed", err)
	}
	return response.Events, nil
}
