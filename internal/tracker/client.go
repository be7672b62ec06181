package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrTimeout means the call deadline expired; the remote outcome is unknown.
	ErrTimeout = errors.New("tracker: timeout")
	// ErrUnavailable covers network and auth failures talking to the tracker.
	ErrUnavailable = errors.New("tracker: unavailable")
)

// RejectedError is a non-success answer to a transition call.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("tracker: transition rejected (status %d): %s", e.StatusCode, e.Body)
}

// Fields is the subset of issue fields the workflow consumes.
type Fields struct {
	Vendor         string     `json:"vendor"`
	Product        string     `json:"product"`
	RequesterName  string     `json:"requester_name"`
	RequesterEmail string     `json:"requester_email"`
	CurrentCount   int        `json:"current_count"`
	NewCount       int        `json:"new_count"`
	Unit           string     `json:"unit"`
	DueDate        *time.Time `json:"due_date"`
	DurationMonths *int       `json:"duration_months"`
	Comment        string     `json:"comment"`
	Updated        *time.Time `json:"updated"`
}

// Client talks to the external ticket store over its JSON API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) GetStatus(ctx context.Context, requestKey string) (string, error) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/api/issues/"+url.PathEscape(requestKey)+"/status", &payload); err != nil {
		return "", err
	}
	return payload.Status, nil
}

func (c *Client) GetFields(ctx context.Context, requestKey string) (Fields, error) {
	var fields Fields
	if err := c.getJSON(ctx, "/api/issues/"+url.PathEscape(requestKey)+"/fields", &fields); err != nil {
		return Fields{}, err
	}
	return fields, nil
}

// ExecuteTransition fires the given transition on the issue. A non-2xx answer
// is returned as a *RejectedError; transport failures keep their own kinds so
// the caller can tell "rejected" from "unknown outcome".
func (c *Client) ExecuteTransition(ctx context.Context, requestKey string, transitionID int) error {
	body, _ := json.Marshal(map[string]int{"transition_id": transitionID})
	endpoint := c.baseURL + "/api/issues/" + url.PathEscape(requestKey) + "/transitions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	c.log.Debug().Str("request_key", requestKey).Int("transition_id", transitionID).Msg("transition executed")
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s returned %d: %s", ErrUnavailable, path, resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
