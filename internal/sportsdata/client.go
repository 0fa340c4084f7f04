package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.sportsfeed.io/v1"

// Event statuses reported by the results feed
const (
	EventStatusScheduled = "scheduled"
	EventStatusLive      = "live"
	EventStatusFinished  = "finished"
	EventStatusPostponed = "postponed"
	EventStatusCancelled = "cancelled"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Event is a match as reported by the results feed
type Event struct {
	ID        string    `json:"id"`
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartsAt  time.Time `json:"starts_at"`
	Status    string    `json:"status"`
	HomeScore *int      `json:"home_score"`
	AwayScore *int      `json:"away_score"`
}

// IsFinished reports whether the event has a final result
func (e *Event) IsFinished() bool {
	return e.Status == EventStatusFinished
}

// FinalScore returns the final score when the event is finished and both
// scores are present
func (e *Event) FinalScore() (int, int, bool) {
	if !e.IsFinished() || e.HomeScore == nil || e.AwayScore == nil {
		return 0, 0, false
	}
	return *e.HomeScore, *e.AwayScore, true
}

type EventsResponse struct {
	Events []Event `json:"events"`
	Next   string  `json:"next"`
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// GetEvent fetches a single event by feed ID
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	endpoint := fmt.Sprintf("%s/events/%s", c.baseURL, url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sports feed API error: %d - %s", resp.StatusCode, string(body))
	}

	var event Event
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &event, nil
}

// ListUpcomingEvents fetches scheduled events for a sport, soonest first
func (c *Client) ListUpcomingEvents(ctx context.Context, sport string, limit int) ([]Event, error) {
	query := url.Values{}
	query.Set("status", EventStatusScheduled)
	query.Set("limit", fmt.Sprintf("%d", limit))
	if sport != "" {
		query.Set("sport", sport)
	}
	endpoint := fmt.Sprintf("%s/events?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sports feed API error: %d - %s", resp.StatusCode, string(body))
	}

	var result EventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Events, nil
}

// addHeaders sets the authentication and content headers
func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
