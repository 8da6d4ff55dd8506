package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: serverURL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestAddCalories(t *testing.T) {
	var got CalorieEntry
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/calories": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, StatusResponse{
				Status:   "ok",
				Warnings: []string{"over daily target"},
			})
		},
	})

	c := newTestClient(t, srv.URL)
	resp, err := c.AddCalories(context.Background(), CalorieEntry{
		Date: "2026-08-29", MealName: "toast", Calories: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"over daily target"}, resp.Warnings)
	assert.Equal(t, "toast", got.MealName)
	assert.Equal(t, 120.0, got.Calories)
}

func TestAddWakeTimePayload(t *testing.T) {
	var got map[string]any
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/wake": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		},
	})

	c := newTestClient(t, srv.URL)
	_, err := c.AddWakeTime(context.Background(), "2026-08-29", "07:30:00")
	require.NoError(t, err)
	assert.Equal(t, "07:30:00", got["wake_time"])
}

func TestAddWeightPayload(t *testing.T) {
	var got map[string]any
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/weight": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		},
	})

	c := newTestClient(t, srv.URL)
	_, err := c.AddWeight(context.Background(), "2026-08-29", 81.6)
	require.NoError(t, err)
	assert.Equal(t, 81.6, got["weight_kg"])
	_, hasLbs := got["weight_lbs"]
	assert.False(t, hasLbs)
}

func TestSearchFoods(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/foods/search": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "brown rice", r.URL.Query().Get("q"))
			writeJSON(w, http.StatusOK, map[string]any{
				"foods": []Food{
					{ID: 12, Name: "Brown Rice", CaloriesPerUnit: 1.12, CanonicalUnit: "g"},
				},
			})
		},
	})

	c := newTestClient(t, srv.URL)
	foods, err := c.SearchFoods(context.Background(), "brown rice", 1)
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, int64(12), foods[0].ID)
}

func TestComputeFood(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/foods/compute": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "2servings", body["quantity"])
			writeJSON(w, http.StatusOK, ComputedCalories{Calories: 416})
		},
	})

	c := newTestClient(t, srv.URL)
	computed, err := c.ComputeFood(context.Background(), 12, "2servings")
	require.NoError(t, err)
	assert.Equal(t, 416.0, computed.Calories)
}

func TestListCustomMetrics(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /api/custom-metrics": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"metrics": []CustomMetric{
					{ID: 1, Name: "Vegetable Servings", Unit: "servings"},
					{ID: 2, Name: "Medication", Unit: "doses"},
				},
			})
		},
	})

	c := newTestClient(t, srv.URL)
	metrics, err := c.ListCustomMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, "Medication", metrics[1].Name)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/weight": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status": "error", "message": "weight out of range",
			})
		},
	})

	c := newTestClient(t, srv.URL)
	_, err := c.AddWeight(context.Background(), "2026-08-29", 9000)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "weight out of range", apiErr.Message)
}

func TestRequestTimeout(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /api/sleep": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		},
	})

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.AddSleep(ctx, "2026-08-29", 8)
	assert.Error(t, err)
}
