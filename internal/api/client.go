package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the dashboard (e.g. "http://localhost:5000").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a default
	// client with the configured Timeout is used.
	HTTPClient *http.Client

	// Timeout applies per request. Defaults to 10 seconds, matching the
	// bounded dispatch window of one command cycle.
	Timeout time.Duration
}

// Client talks to the health dashboard REST API. All methods are safe
// for concurrent use, though the pipeline only ever has one dispatch in
// flight.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

// AddCalories creates a calorie entry.
func (c *Client) AddCalories(ctx context.Context, entry CalorieEntry) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.post(ctx, "/api/calories", entry, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddWeight logs body weight for the given date. The dashboard stores
// kilograms regardless of what unit was spoken.
func (c *Client) AddWeight(ctx context.Context, date string, kg float64) (*StatusResponse, error) {
	var resp StatusResponse
	body := map[string]any{"date": date, "weight_kg": kg}
	if err := c.post(ctx, "/api/weight", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddSleep logs a night's sleep duration in hours.
func (c *Client) AddSleep(ctx context.Context, date string, hours float64) (*StatusResponse, error) {
	var resp StatusResponse
	body := map[string]any{"date": date, "hours": hours}
	if err := c.post(ctx, "/api/sleep", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddWakeTime logs the wake-up time, formatted "HH:MM:SS" 24-hour.
func (c *Client) AddWakeTime(ctx context.Context, date, wakeTime string) (*StatusResponse, error) {
	var resp StatusResponse
	body := map[string]any{"date": date, "wake_time": wakeTime}
	if err := c.post(ctx, "/api/wake", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddWorkout logs a workout duration in minutes.
func (c *Client) AddWorkout(ctx context.Context, date string, minutes float64, workoutType string) (*StatusResponse, error) {
	if workoutType == "" {
		workoutType = "General"
	}
	var resp StatusResponse
	body := map[string]any{
		"date":             date,
		"duration_minutes": minutes,
		"workout_type":     workoutType,
	}
	if err := c.post(ctx, "/api/workout", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCustomMetrics returns every user-defined metric.
func (c *Client) ListCustomMetrics(ctx context.Context) ([]CustomMetric, error) {
	var resp struct {
		Metrics []CustomMetric `json:"metrics"`
	}
	if err := c.get(ctx, "/api/custom-metrics", &resp); err != nil {
		return nil, err
	}
	return resp.Metrics, nil
}

// AddMetricEntry records a value for a custom metric.
func (c *Client) AddMetricEntry(ctx context.Context, metricID int64, date string, value float64) (*StatusResponse, error) {
	var resp StatusResponse
	body := map[string]any{"date": date, "value": value}
	path := fmt.Sprintf("/api/custom-metrics/%d/entries", metricID)
	if err := c.post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchFoods queries the food reference table by name.
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Food, error) {
	if limit <= 0 {
		limit = 1
	}
	path := "/api/foods/search?q=" + url.QueryEscape(query) + "&limit=" + strconv.Itoa(limit)
	var resp struct {
		Foods []Food `json:"foods"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Foods, nil
}

// ComputeFood asks the dashboard to turn a food id plus a quantity
// expression ("2.5cups", "150g") into calories.
func (c *Client) ComputeFood(ctx context.Context, foodID int64, quantity string) (*ComputedCalories, error) {
	var resp ComputedCalories
	body := map[string]any{"food_id": foodID, "quantity": quantity}
	if err := c.post(ctx, "/api/foods/compute", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Message = body.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
