package food

import (
	"context"
	"errors"
	"fmt"

	"healthvoice/internal/api"
	"healthvoice/internal/nlu"
)

// ErrNotFound means no food reference entry matched the spoken name.
// The pipeline reports it as an unrecognized command, it never retries.
var ErrNotFound = errors.New("food not found")

// Estimate is a resolved food with its computed calorie total.
type Estimate struct {
	FoodID   int64
	Name     string
	Calories float64
	Fuzzy    bool // true when the match was by prefix, not exact name
}

// Resolver turns a spoken food name plus quantity into calories.
type Resolver interface {
	Resolve(ctx context.Context, name string, qty float64, unit nlu.Unit) (*Estimate, error)
}

// quantityExpr renders a quantity the way the dashboard's compute
// endpoint expects it, e.g. "2servings", "150g", "2.5cups".
func quantityExpr(qty float64, unit nlu.Unit) string {
	suffix := "servings"
	switch unit {
	case nlu.UnitGrams:
		suffix = "g"
	case nlu.UnitCups:
		suffix = "cups"
	}
	return fmt.Sprintf("%g%s", qty, suffix)
}

// apiResolver looks foods up through the dashboard REST API, mirroring
// the search-then-compute sequence of the web UI.
type apiResolver struct {
	client *api.Client
}

// NewAPIResolver builds a Resolver backed by the dashboard food table.
func NewAPIResolver(client *api.Client) Resolver {
	return &apiResolver{client: client}
}

func (r *apiResolver) Resolve(ctx context.Context, name string, qty float64, unit nlu.Unit) (*Estimate, error) {
	foods, err := r.client.SearchFoods(ctx, name, 1)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	if len(foods) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	match := foods[0]

	computed, err := r.client.ComputeFood(ctx, match.ID, quantityExpr(qty, unit))
	if err != nil {
		return nil, fmt.Errorf("compute %q: %w", match.Name, err)
	}
	return &Estimate{
		FoodID:   match.ID,
		Name:     match.Name,
		Calories: computed.Calories,
	}, nil
}
