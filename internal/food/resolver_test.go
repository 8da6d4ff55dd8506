package food

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvoice/internal/api"
	"healthvoice/internal/nlu"
)

func testAPIResolver(t *testing.T, mux *http.ServeMux) Resolver {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client, err := api.NewClient(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return NewAPIResolver(client)
}

func TestAPIResolverSearchThenCompute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/foods/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brown rice", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		// same envelope the dashboard sends
		_, _ = w.Write([]byte(`{"foods":[{"id":12,"name":"Brown Rice","calories_per_unit":1.12,"canonical_unit":"g"}]}`))
	})
	mux.HandleFunc("POST /api/foods/compute", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"calories":416}`))
	})

	r := testAPIResolver(t, mux)
	est, err := r.Resolve(context.Background(), "brown rice", 2, nlu.UnitServings)
	require.NoError(t, err)
	assert.Equal(t, int64(12), est.FoodID)
	assert.Equal(t, "Brown Rice", est.Name)
	assert.Equal(t, 416.0, est.Calories)
}

func TestAPIResolverNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/foods/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foods":[]}`))
	})

	r := testAPIResolver(t, mux)
	_, err := r.Resolve(context.Background(), "unobtainium", 1, nlu.UnitServings)
	assert.ErrorIs(t, err, ErrNotFound)
}
