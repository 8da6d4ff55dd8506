package nlu

import (
	"errors"
	"strings"
)

// ErrNoMatch is returned when an utterance fits none of the command
// grammars. The orchestrator reports it as an unrecognized command.
var ErrNoMatch = errors.New("no matching command")

// errAbort ends the cascade early: the utterance structurally matched a
// grammar but a slot inside it was unusable, so later grammars must not
// get a second chance at it.
var errAbort = errors.New("abort cascade")

var logVerbs = map[string]bool{
	"add": true, "log": true, "logged": true, "ate": true, "had": true,
}

var calorieWords = map[string]bool{
	"calories": true, "calorie": true, "cals": true, "cal": true, "kcal": true,
}

var servingUnits = map[string]Unit{
	"serving": UnitServings, "servings": UnitServings,
	"gram": UnitGrams, "grams": UnitGrams, "g": UnitGrams,
	"cup": UnitCups, "cups": UnitCups,
}

var weightUnits = map[string]Unit{
	"kg": UnitKg, "kilo": UnitKg, "kilos": UnitKg,
	"kilogram": UnitKg, "kilograms": UnitKg,
	"lb": UnitLbs, "lbs": UnitLbs, "pound": UnitLbs, "pounds": UnitLbs,
}

// Parse matches a raw utterance against the command grammars, in fixed
// priority order. The custom-keyword grammar runs last so a registry
// entry can never shadow a built-in command.
func Parse(text string, snap *Snapshot) (*ParsedIntent, error) {
	tokens := strings.Fields(Normalize(text))
	if len(tokens) == 0 {
		return nil, ErrNoMatch
	}

	matchers := []func([]string) (*ParsedIntent, error){
		matchCalories, // with-food and bare forms share one frame
		matchCaloriesByServing,
		matchWeight,
		matchSleep,
		matchWakeTime,
		matchWorkout,
		matchVegetables,
		func(t []string) (*ParsedIntent, error) { return matchCustom(t, snap) },
	}

	for _, m := range matchers {
		intent, err := m(tokens)
		if errors.Is(err, errAbort) {
			return nil, ErrNoMatch
		}
		if err != nil {
			return nil, err
		}
		if intent != nil {
			intent.Transcript = text
			return intent, nil
		}
	}
	return nil, ErrNoMatch
}

// stripPrefix removes the longest matching leading phrase. Phrases are
// given space-separated; the first (longest) hit wins.
func stripPrefix(tokens []string, phrases ...string) ([]string, bool) {
	for _, p := range phrases {
		words := strings.Fields(p)
		if len(words) > len(tokens) {
			continue
		}
		ok := true
		for i, w := range words {
			if tokens[i] != w {
				ok = false
				break
			}
		}
		if ok {
			return tokens[len(words):], true
		}
	}
	return tokens, false
}

// splitFoodQuantity divides a token window into leading food-name tokens
// and a trailing quantity, preferring the longest numeric suffix.
func splitFoodQuantity(tokens []string) (food []string, qty float64, ok bool) {
	for i := 0; i < len(tokens); i++ {
		v, n, err := parseNumberTokens(tokens[i:])
		if err == nil && i+n == len(tokens) {
			return tokens[:i], v, true
		}
	}
	return nil, 0, false
}

// matchCalories covers both `<verb> <food> <qty> calories` and the bare
// `<verb> <qty> calories` form; presence of food tokens decides which.
func matchCalories(tokens []string) (*ParsedIntent, error) {
	if len(tokens) < 3 || !logVerbs[tokens[0]] || !calorieWords[tokens[len(tokens)-1]] {
		return nil, nil
	}
	food, qty, ok := splitFoodQuantity(tokens[1 : len(tokens)-1])
	if !ok {
		return nil, errAbort
	}
	return &ParsedIntent{
		Kind:     KindCalories,
		Quantity: qty,
		Unit:     UnitCalories,
		Food:     strings.Join(food, " "),
	}, nil
}

// matchCaloriesByServing: `<verb> <qty> (serving(s) of|grams|cups) <food>`.
// The food and quantity are resolved against the food reference table
// downstream; here only the shape is validated.
func matchCaloriesByServing(tokens []string) (*ParsedIntent, error) {
	if len(tokens) < 4 || !logVerbs[tokens[0]] {
		return nil, nil
	}
	rest := tokens[1:]
	qty, n, err := parseNumberTokens(rest)
	if err != nil || n >= len(rest) {
		return nil, nil
	}
	unit, ok := servingUnits[rest[n]]
	if !ok {
		return nil, nil
	}
	food := rest[n+1:]
	if len(food) > 0 && food[0] == "of" {
		food = food[1:]
	}
	if len(food) == 0 {
		return nil, errAbort
	}
	return &ParsedIntent{
		Kind:     KindCalories,
		Quantity: qty,
		Unit:     unit,
		Food:     strings.Join(food, " "),
	}, nil
}

func matchWeight(tokens []string) (*ParsedIntent, error) {
	rest, ok := stripPrefix(tokens,
		"my weight is", "my weight today is", "weight is", "i weigh", "weighed", "weight")
	if !ok {
		return nil, nil
	}
	qty, n, err := parseNumberTokens(rest)
	if err != nil {
		return nil, errAbort
	}
	unit := UnitLbs // dashboard stores pounds; bare numbers default to it
	if n < len(rest) {
		u, ok := weightUnits[rest[n]]
		if !ok {
			return nil, nil
		}
		unit = u
		n++
	}
	if n != len(rest) {
		return nil, nil
	}
	return &ParsedIntent{Kind: KindWeight, Quantity: qty, Unit: unit}, nil
}

func matchSleep(tokens []string) (*ParsedIntent, error) {
	rest, ok := stripPrefix(tokens, "i slept", "slept", "i got", "got")
	if !ok {
		return nil, nil
	}
	// `<qty> hours [of sleep]` / `<qty> hours sleep`
	if n := len(rest); n >= 2 && rest[n-2] == "of" && rest[n-1] == "sleep" {
		rest = rest[:n-2]
	} else if n >= 1 && rest[n-1] == "sleep" {
		rest = rest[:n-1]
	}
	if n := len(rest); n >= 1 && (rest[n-1] == "hours" || rest[n-1] == "hour") {
		rest = rest[:n-1]
	} else {
		return nil, nil
	}
	qty, err := ParseQuantity(strings.Join(rest, " "))
	if err != nil {
		return nil, errAbort
	}
	return &ParsedIntent{Kind: KindSleep, Quantity: qty, Unit: UnitHours}, nil
}

func matchWakeTime(tokens []string) (*ParsedIntent, error) {
	rest, ok := stripPrefix(tokens, "i woke up at", "woke up at", "i woke at", "woke at")
	if !ok {
		return nil, nil
	}
	ct, ok := parseClockTime(rest)
	if !ok {
		// Nothing after wake-time in the cascade can match this
		// utterance, so a bad time ends the whole parse.
		return nil, errAbort
	}
	return &ParsedIntent{Kind: KindWakeTime, Time: ct}, nil
}

func matchWorkout(tokens []string) (*ParsedIntent, error) {
	// `<qty> minute workout`
	if n := len(tokens); n >= 3 {
		last, unit := tokens[n-1], tokens[n-2]
		if (last == "workout" || last == "exercise") && (unit == "minute" || unit == "min") {
			qty, err := ParseQuantity(strings.Join(tokens[:n-2], " "))
			if err != nil {
				return nil, errAbort
			}
			return &ParsedIntent{Kind: KindWorkout, Quantity: qty, Unit: UnitMinutes}, nil
		}
	}

	rest, ok := stripPrefix(tokens,
		"i worked out for", "worked out for", "i worked out", "worked out",
		"i exercised for", "exercised for", "i exercised", "exercised",
		"did a workout for", "did a workout")
	if !ok {
		return nil, nil
	}
	if n := len(rest); n >= 1 {
		switch rest[n-1] {
		case "minutes", "minute", "mins", "min":
			rest = rest[:n-1]
		}
	}
	qty, err := ParseQuantity(strings.Join(rest, " "))
	if err != nil {
		return nil, errAbort
	}
	return &ParsedIntent{Kind: KindWorkout, Quantity: qty, Unit: UnitMinutes}, nil
}

func matchVegetables(tokens []string) (*ParsedIntent, error) {
	if tokens[0] != "vegetables" && tokens[0] != "vegetable" {
		return nil, nil
	}
	rest := tokens[1:]
	if n := len(rest); n >= 1 && (rest[n-1] == "servings" || rest[n-1] == "serving") {
		rest = rest[:n-1]
	}
	qty, err := ParseQuantity(strings.Join(rest, " "))
	if err != nil {
		return nil, errAbort
	}
	return &ParsedIntent{Kind: KindVegetables, Quantity: qty, Unit: UnitServings}, nil
}

func matchCustom(tokens []string, snap *Snapshot) (*ParsedIntent, error) {
	def, n := snap.Match(tokens)
	if def == nil {
		return nil, nil
	}
	qty, err := ParseQuantity(strings.Join(tokens[n:], " "))
	if err != nil {
		return nil, errAbort
	}
	return &ParsedIntent{
		Kind:     KindCustom,
		Quantity: qty,
		Keyword:  def.Keyword,
		MetricID: def.ID,
	}, nil
}
