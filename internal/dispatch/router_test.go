package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvoice/internal/food"
	"healthvoice/internal/nlu"
)

type fakeResolver struct {
	est  *food.Estimate
	err  error
	name string
	qty  float64
	unit nlu.Unit
}

func (f *fakeResolver) Resolve(_ context.Context, name string, qty float64, unit nlu.Unit) (*food.Estimate, error) {
	f.name, f.qty, f.unit = name, qty, unit
	if f.err != nil {
		return nil, f.err
	}
	return f.est, nil
}

func fixedRouter(r food.Resolver) *Router {
	router := NewRouter(r)
	router.now = func() time.Time {
		return time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	}
	return router
}

func TestRouteDirectCalories(t *testing.T) {
	router := fixedRouter(nil)
	req, err := router.Route(context.Background(), &nlu.ParsedIntent{
		Kind: nlu.KindCalories, Quantity: 500, Unit: nlu.UnitCalories,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, req.Value)
	assert.Equal(t, "2026-08-29", req.Date)
	assert.Empty(t, req.Food)
}

func TestRouteCaloriesWithFoodNameOnly(t *testing.T) {
	// "had toast 120 calories" carries its own calorie count and must
	// not touch the resolver.
	resolver := &fakeResolver{}
	router := fixedRouter(resolver)
	req, err := router.Route(context.Background(), &nlu.ParsedIntent{
		Kind: nlu.KindCalories, Quantity: 120, Unit: nlu.UnitCalories, Food: "toast",
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, req.Value)
	assert.Equal(t, "toast", req.Food)
	assert.Empty(t, resolver.name)
}

func TestRouteServingCaloriesResolves(t *testing.T) {
	resolver := &fakeResolver{est: &food.Estimate{FoodID: 12, Name: "brown rice", Calories: 416}}
	router := fixedRouter(resolver)
	req, err := router.Route(context.Background(), &nlu.ParsedIntent{
		Kind: nlu.KindCalories, Quantity: 2, Unit: nlu.UnitServings, Food: "rice",
	})
	require.NoError(t, err)
	assert.Equal(t, 416.0, req.Value)
	assert.Equal(t, "brown rice", req.Food)
	assert.Equal(t, int64(12), req.FoodID)
	assert.Equal(t, "rice", resolver.name)
	assert.Equal(t, 2.0, resolver.qty)
	assert.Equal(t, nlu.UnitServings, resolver.unit)
	assert.Equal(t, nlu.MatchExact, req.Confidence)
}

func TestRoutePrefixFoodMatchIsFuzzy(t *testing.T) {
	resolver := &fakeResolver{est: &food.Estimate{FoodID: 3, Name: "broccoli", Calories: 55, Fuzzy: true}}
	router := fixedRouter(resolver)
	req, err := router.Route(context.Background(), &nlu.ParsedIntent{
		Kind: nlu.KindCalories, Quantity: 1, Unit: nlu.UnitServings, Food: "brocc",
	})
	require.NoError(t, err)
	assert.Equal(t, nlu.MatchFuzzy, req.Confidence)
	assert.Equal(t, "broccoli", req.Food)
}

func TestRouteUnknownFood(t *testing.T) {
	resolver := &fakeResolver{err: food.ErrNotFound}
	router := fixedRouter(resolver)
	_, err := router.Route(context.Background(), &nlu.ParsedIntent{
		Kind: nlu.KindCalories, Quantity: 2, Unit: nlu.UnitServings, Food: "unobtainium",
	})
	assert.ErrorIs(t, err, food.ErrNotFound)
}

func TestWeightConversion(t *testing.T) {
	// The confirmation speaks pounds, the wire carries kilograms.
	assert.Equal(t, 180.0, weightLbs(&LogActionRequest{Value: 180, Unit: nlu.UnitLbs}))
	assert.Equal(t, 180.8, weightLbs(&LogActionRequest{Value: 82, Unit: nlu.UnitKg}))

	assert.Equal(t, 81.6, weightKg(&LogActionRequest{Value: 180, Unit: nlu.UnitLbs}))
	assert.Equal(t, 82.0, weightKg(&LogActionRequest{Value: 82, Unit: nlu.UnitKg}))
}
