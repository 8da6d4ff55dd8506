package nlu

type MetricKind int

const (
	KindCalories MetricKind = iota
	KindWeight
	KindSleep
	KindWakeTime
	KindWorkout
	KindVegetables
	KindCustom
)

func (k MetricKind) String() string {
	switch k {
	case KindCalories:
		return "calories"
	case KindWeight:
		return "weight"
	case KindSleep:
		return "sleep"
	case KindWakeTime:
		return "wake_time"
	case KindWorkout:
		return "workout"
	case KindVegetables:
		return "vegetables"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

type Unit int

const (
	UnitNone Unit = iota
	UnitCalories
	UnitKg
	UnitLbs
	UnitGrams
	UnitCups
	UnitServings
	UnitMinutes
	UnitHours
)

func (u Unit) String() string {
	switch u {
	case UnitCalories:
		return "calories"
	case UnitKg:
		return "kg"
	case UnitLbs:
		return "lbs"
	case UnitGrams:
		return "grams"
	case UnitCups:
		return "cups"
	case UnitServings:
		return "servings"
	case UnitMinutes:
		return "minutes"
	case UnitHours:
		return "hours"
	}
	return ""
}

type Confidence int

const (
	MatchExact Confidence = iota
	MatchFuzzy
)

// ClockTime is a wall-clock time extracted from speech. Meridiem is ""
// when the utterance did not carry AM/PM; the consumer picks a default.
type ClockTime struct {
	Hour     int
	Minute   int
	Meridiem string // "am", "pm" or ""
}

// Hour24 converts to a 24-hour value, treating 12 AM as midnight.
func (c ClockTime) Hour24() int {
	h := c.Hour
	switch c.Meridiem {
	case "pm":
		if h != 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	return h
}

// ParsedIntent is the structured result of matching one utterance.
type ParsedIntent struct {
	Kind       MetricKind
	Quantity   float64
	Unit       Unit
	Food       string     // optional, calories-with-food and by-serving
	Time       *ClockTime // wake-time only
	Keyword    string     // custom metrics only
	MetricID   int64      // custom metrics only
	Confidence Confidence
	Transcript string // original text, for audit
}
