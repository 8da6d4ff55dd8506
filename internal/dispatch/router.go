package dispatch

import (
	"context"
	"fmt"
	"time"

	"healthvoice/internal/food"
	"healthvoice/internal/nlu"
)

// LogActionRequest is the outward-facing payload for one recognized
// command: exactly one is produced per cycle, never batched.
type LogActionRequest struct {
	Kind       nlu.MetricKind
	Value      float64
	Unit       nlu.Unit
	Food       string
	FoodID     int64
	MetricID   int64
	Time       *nlu.ClockTime
	Date       string // YYYY-MM-DD for the dashboard
	At         time.Time
	Confidence nlu.Confidence // MatchFuzzy when the food matched by prefix
}

// Router maps a parsed intent onto a log-action request. It is a pure
// mapping except for the food lookup on serving-based calorie commands.
type Router struct {
	foods food.Resolver
	now   func() time.Time
}

func NewRouter(foods food.Resolver) *Router {
	return &Router{foods: foods, now: time.Now}
}

func (r *Router) Route(ctx context.Context, intent *nlu.ParsedIntent) (*LogActionRequest, error) {
	now := r.now()
	req := &LogActionRequest{
		Kind:       intent.Kind,
		Value:      intent.Quantity,
		Unit:       intent.Unit,
		Food:       intent.Food,
		MetricID:   intent.MetricID,
		Time:       intent.Time,
		Date:       now.Format("2006-01-02"),
		At:         now,
		Confidence: intent.Confidence,
	}

	// Serving/gram/cup calorie commands carry a food name that still
	// needs a calorie value from the reference table.
	if intent.Kind == nlu.KindCalories && intent.Food != "" && intent.Unit != nlu.UnitCalories {
		if r.foods == nil {
			return nil, fmt.Errorf("%q: %w", intent.Food, food.ErrNotFound)
		}
		est, err := r.foods.Resolve(ctx, intent.Food, intent.Quantity, intent.Unit)
		if err != nil {
			return nil, err
		}
		req.Value = est.Calories
		req.Food = est.Name
		req.FoodID = est.FoodID
		if est.Fuzzy {
			req.Confidence = nlu.MatchFuzzy
		}
	}
	return req, nil
}

const (
	lbsPerKg = 2.20462
	kgPerLb  = 0.453592
)

// weightLbs renders the spoken confirmation in pounds, one decimal.
func weightLbs(req *LogActionRequest) float64 {
	lbs := req.Value
	if req.Unit == nlu.UnitKg {
		lbs *= lbsPerKg
	}
	return float64(int(lbs*10+0.5)) / 10
}

// weightKg normalizes toward kilograms for the wire, one decimal,
// which is the unit the dashboard stores.
func weightKg(req *LogActionRequest) float64 {
	kg := req.Value
	if req.Unit != nlu.UnitKg {
		kg *= kgPerLb
	}
	return float64(int(kg*10+0.5)) / 10
}
