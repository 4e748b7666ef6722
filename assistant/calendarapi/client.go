package calendarapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	contractx "github.com/aydalabs/Ayda-Conversational-Assistant/assistant/contract"
)

const maxResponseSizeBytes = 2 << 20

// Config carries settings for the hosted calendar provider.
type Config struct {
	URL     string        `split_words:"true" required:"true"`
	Token   string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// Client talks to the calendar provider's REST API and maps its failures
// onto the calendar collaborator errors the task agent distinguishes.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("calendar api url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("calendar api token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

type eventPayload struct {
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description,omitempty"`
}

type createEventResponse struct {
	ID string `json:"id"`
}

type listEventsResponse struct {
	Events []eventRecord `json:"events"`
}

type eventRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
}

// CreateEvent books the event on the user's calendar and returns the
// provider-assigned event id.
func (c *Client) CreateEvent(ctx context.Context, userID string, event contractx.CalendarEvent) (string, error) {
	payload, err := json.Marshal(eventPayload{
		Title:       event.Title,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		Description: event.Description,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode event: %v", contractx.ErrInvalidPayload, err)
	}

	body, err := c.do(ctx, http.MethodPost, c.eventsURL(userID), payload)
	if err != nil {
		return "", err
	}

	var decoded createEventResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode create response: %v", contractx.ErrUnavailable, err)
	}
	if decoded.ID == "" {
		return "", fmt.Errorf("%w: create response carried no event id", contractx.ErrUnavailable)
	}
	return decoded.ID, nil
}

// ListEvents returns upcoming events starting at from, soonest first.
func (c *Client) ListEvents(ctx context.Context, userID string, from time.Time, limit int) ([]contractx.CalendarEvent, error) {
	endpoint := c.eventsURL(userID) + "?from=" + url.QueryEscape(from.UTC().Format(time.RFC3339))
	if limit > 0 {
		endpoint += "&limit=" + strconv.Itoa(limit)
	}

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var decoded listEventsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode list response: %v", contractx.ErrUnavailable, err)
	}

	events := make([]contractx.CalendarEvent, 0, len(decoded.Events))
	for _, rec := range decoded.Events {
		events = append(events, contractx.CalendarEvent{
			ID:          rec.ID,
			Title:       rec.Title,
			StartTime:   rec.StartTime,
			EndTime:     rec.EndTime,
			Description: rec.Description,
		})
	}
	return events, nil
}

func (c *Client) eventsURL(userID string) string {
	return c.baseURL + "/v1/users/" + url.PathEscape(userID) + "/events"
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", contractx.ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", contractx.ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

// statusError distinguishes the auth, payload and availability failure
// classes by provider status code. Unknown codes count as unavailable so
// the caller treats them as transient.
func statusError(status int, body []byte) error {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: calendar api status %d: %s", contractx.ErrAuthExpired, status, excerpt)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: calendar api status %d: %s", contractx.ErrInvalidPayload, status, excerpt)
	default:
		return fmt.Errorf("%w: calendar api status %d: %s", contractx.ErrUnavailable, status, excerpt)
	}
}
