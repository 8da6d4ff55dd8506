package nlu

import (
	"strconv"
	"strings"
)

// parseInteger reads a whole token span as an integer, digits or words.
func parseInteger(tokens []string) (int, bool) {
	if len(tokens) == 0 {
		return 0, false
	}
	if len(tokens) == 1 && isDigits(tokens[0]) {
		v, err := strconv.Atoi(tokens[0])
		if err != nil {
			return 0, false
		}
		return v, true
	}
	v, n, ok := parseIntegerWords(tokens)
	if !ok || n != len(tokens) {
		return 0, false
	}
	return int(v), true
}

// parseClockTime interprets a token span as a clock time. Accepted forms:
//
//	7 am            7:30 pm         11:05 am
//	seven am        seven thirty    eight fifteen pm
//	six forty-five  (meridiem omitted -> left unset)
//
// Hour must be 1-12, minute 0-59. The whole span must be consumed.
func parseClockTime(tokens []string) (*ClockTime, bool) {
	if len(tokens) == 0 {
		return nil, false
	}

	mer := ""
	if last := tokens[len(tokens)-1]; last == "am" || last == "pm" {
		mer = last
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return nil, false
	}

	var hour, minute int

	first := tokens[0]
	if strings.Contains(first, ":") {
		if len(tokens) != 1 {
			return nil, false
		}
		parts := strings.SplitN(first, ":", 2)
		if !isDigits(parts[0]) || !isDigits(parts[1]) || len(parts[1]) != 2 {
			return nil, false
		}
		hour, _ = strconv.Atoi(parts[0])
		minute, _ = strconv.Atoi(parts[1])
	} else {
		var ok bool
		if isDigits(first) {
			hour, ok = parseInteger(tokens[:1])
		} else {
			// Worded hour is always a single token ("six", "twelve");
			// anything after it belongs to the minutes.
			_, okHour := smallWords[first]
			if !okHour {
				return nil, false
			}
			hour, ok = parseInteger(tokens[:1])
		}
		if !ok {
			return nil, false
		}
		if rest := tokens[1:]; len(rest) > 0 {
			minute, ok = parseInteger(rest)
			if !ok {
				return nil, false
			}
		}
	}

	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return nil, false
	}
	return &ClockTime{Hour: hour, Minute: minute, Meridiem: mer}, true
}
