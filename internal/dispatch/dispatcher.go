package dispatch

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"healthvoice/internal/api"
	"healthvoice/internal/nlu"
)

// Result is what the assistant reports back after a cycle; Message is
// phrased for the TTS voice.
type Result struct {
	OK      bool
	Message string
	Err     error
}

func failure(msg string, err error) Result {
	return Result{OK: false, Message: msg, Err: err}
}

// Dispatcher sends log-action requests to the dashboard. Failures are
// reported once and never retried inside the same command cycle.
type Dispatcher struct {
	client *api.Client
}

func NewDispatcher(client *api.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Execute(ctx context.Context, req *LogActionRequest) Result {
	switch req.Kind {
	case nlu.KindCalories:
		return d.addCalories(ctx, req)
	case nlu.KindWeight:
		return d.logWeight(ctx, req)
	case nlu.KindSleep:
		return d.logSleep(ctx, req)
	case nlu.KindWakeTime:
		return d.logWakeTime(ctx, req)
	case nlu.KindWorkout:
		return d.logWorkout(ctx, req)
	case nlu.KindVegetables:
		return d.logVegetables(ctx, req)
	case nlu.KindCustom:
		return d.logCustomMetric(ctx, req)
	}
	return failure("I don't know how to handle that command.", fmt.Errorf("unhandled kind %s", req.Kind))
}

func (d *Dispatcher) addCalories(ctx context.Context, req *LogActionRequest) Result {
	if req.Confidence == nlu.MatchFuzzy {
		// resolved by prefix; the confirmation names the matched food so
		// the user hears what was actually logged
		log.Debug("Food matched by prefix", "food", req.Food)
	}
	entry := api.CalorieEntry{
		Date:     req.Date,
		MealName: req.Food,
		Calories: req.Value,
		FoodID:   req.FoodID,
	}
	if entry.MealName == "" {
		entry.MealName = "Voice entry"
	}
	resp, err := d.client.AddCalories(ctx, entry)
	if err != nil {
		return dispatchError("add calories", err)
	}

	msg := fmt.Sprintf("Added %d calories", int(req.Value))
	if req.Food != "" {
		msg += " for " + req.Food
	}
	return success(msg, resp)
}

func (d *Dispatcher) logWeight(ctx context.Context, req *LogActionRequest) Result {
	lbs := weightLbs(req)
	resp, err := d.client.AddWeight(ctx, req.Date, weightKg(req))
	if err != nil {
		return dispatchError("log weight", err)
	}
	return success(fmt.Sprintf("Logged weight as %.1f pounds", lbs), resp)
}

func (d *Dispatcher) logSleep(ctx context.Context, req *LogActionRequest) Result {
	resp, err := d.client.AddSleep(ctx, req.Date, req.Value)
	if err != nil {
		return dispatchError("log sleep", err)
	}
	return success(fmt.Sprintf("Logged %g hours of sleep", req.Value), resp)
}

func (d *Dispatcher) logWakeTime(ctx context.Context, req *LogActionRequest) Result {
	if req.Time == nil {
		return failure("I didn't catch the wake time.", errors.New("missing clock time"))
	}
	ct := *req.Time
	// Without AM/PM the spoken hour goes through untouched and the
	// dashboard applies its own default.
	hour24 := ct.Hour
	if ct.Meridiem != "" {
		hour24 = ct.Hour24()
	}
	resp, err := d.client.AddWakeTime(ctx, req.Date, fmt.Sprintf("%02d:%02d:00", hour24, ct.Minute))
	if err != nil {
		return dispatchError("log wake time", err)
	}
	return success(fmt.Sprintf("Logged wake time as %d:%02d", ct.Hour, ct.Minute), resp)
}

func (d *Dispatcher) logWorkout(ctx context.Context, req *LogActionRequest) Result {
	resp, err := d.client.AddWorkout(ctx, req.Date, req.Value, "")
	if err != nil {
		return dispatchError("log workout", err)
	}
	return success(fmt.Sprintf("Logged a %g minute workout", req.Value), resp)
}

// logVegetables records servings against the custom metric whose name
// mentions vegetables, the convention the dashboard seeds.
func (d *Dispatcher) logVegetables(ctx context.Context, req *LogActionRequest) Result {
	metrics, err := d.client.ListCustomMetrics(ctx)
	if err != nil {
		return dispatchError("log vegetables", err)
	}
	var metricID int64 = -1
	for _, m := range metrics {
		if strings.Contains(strings.ToLower(m.Name), "vegetable") {
			metricID = m.ID
			break
		}
	}
	if metricID < 0 {
		return failure("Vegetable tracking is not set up.", errors.New("no vegetable metric configured"))
	}

	resp, err := d.client.AddMetricEntry(ctx, metricID, req.Date, req.Value)
	if err != nil {
		return dispatchError("log vegetables", err)
	}
	return success(fmt.Sprintf("Logged %g servings of vegetables", req.Value), resp)
}

func (d *Dispatcher) logCustomMetric(ctx context.Context, req *LogActionRequest) Result {
	resp, err := d.client.AddMetricEntry(ctx, req.MetricID, req.Date, req.Value)
	if err != nil {
		return dispatchError("log metric", err)
	}
	return success(fmt.Sprintf("Logged %g", req.Value), resp)
}

func success(msg string, resp *api.StatusResponse) Result {
	if resp != nil && len(resp.Warnings) > 0 {
		msg += ". Warning: " + resp.Warnings[0]
	}
	return Result{OK: true, Message: msg}
}

func dispatchError(action string, err error) Result {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		log.Warn("Dashboard rejected request", "action", action, "err", err)
		msg := apiErr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return failure(fmt.Sprintf("Failed to %s: %s", action, msg), err)
	}
	log.Warn("Dashboard unreachable", "action", action, "err", err)
	return failure("Cannot connect to dashboard server.", err)
}
