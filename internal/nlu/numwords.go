package nlu

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotANumber is returned when a quantity slot does not hold a
// recognizable spoken or digit number.
var ErrNotANumber = errors.New("not a number")

var smallWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]float64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

func isDigits(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitHyphenTens handles compounds like "forty-five".
func splitHyphenTens(tok string) (float64, bool) {
	parts := strings.SplitN(tok, "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	tens, ok := tensWords[parts[0]]
	if !ok {
		return 0, false
	}
	ones, ok := smallWords[parts[1]]
	if !ok || ones < 1 || ones > 9 {
		return 0, false
	}
	return tens + ones, true
}

// parseIntegerWords consumes the longest leading run of tokens forming a
// worded integer ("forty five", "five hundred twenty"). It deliberately
// does not merge adjacent independent numbers, so "eight fifteen" stays
// two numbers for the time grammar.
func parseIntegerWords(tokens []string) (float64, int, bool) {
	i := 0
	group := func() (float64, bool) {
		if i >= len(tokens) {
			return 0, false
		}
		tok := tokens[i]
		if v, ok := splitHyphenTens(tok); ok {
			i++
			return v, true
		}
		if v, ok := tensWords[tok]; ok {
			i++
			if i < len(tokens) {
				if o, ok := smallWords[tokens[i]]; ok && o >= 1 && o <= 9 {
					i++
					v += o
				}
			}
			return v, true
		}
		if v, ok := smallWords[tok]; ok {
			i++
			return v, true
		}
		return 0, false
	}

	val, ok := group()
	if !ok {
		return 0, 0, false
	}
	for i < len(tokens) {
		var mult float64
		switch tokens[i] {
		case "hundred":
			mult = 100
		case "thousand":
			mult = 1000
		default:
			return val, i, true
		}
		i++
		val *= mult
		if rest, ok := group(); ok {
			val += rest
		}
	}
	return val, i, true
}

// parseFraction consumes "[and] (a half | a quarter | three quarter(s))"
// and returns the fractional value plus tokens consumed. Zero consumed
// means no fraction phrase is present.
func parseFraction(tokens []string) (float64, int) {
	j := 0
	if j < len(tokens) && tokens[j] == "and" {
		j++
	}
	rest := tokens[j:]
	two := func(a, b string) bool {
		return len(rest) >= 2 && rest[0] == a && rest[1] == b
	}
	switch {
	case two("a", "half"), two("one", "half"):
		return 0.5, j + 2
	case two("a", "quarter"), two("one", "quarter"):
		return 0.25, j + 2
	case two("three", "quarter"), two("three", "quarters"):
		return 0.75, j + 2
	case len(rest) >= 1 && rest[0] == "half":
		return 0.5, j + 1
	case len(rest) >= 1 && rest[0] == "quarter":
		return 0.25, j + 1
	}
	return 0, 0
}

// parseNumberTokens reads a number from the front of the token window:
// digits ("500", "7.5"), worded integers ("forty five"), and an optional
// trailing fraction phrase ("seven and a half"). Returns the value and
// the number of tokens consumed.
func parseNumberTokens(tokens []string) (float64, int, error) {
	if len(tokens) == 0 {
		return 0, 0, ErrNotANumber
	}

	var (
		val float64
		n   int
	)
	tok := tokens[0]
	if isDigits(tok) || (strings.Count(tok, ".") == 1 && isDigits(strings.ReplaceAll(tok, ".", ""))) {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, 0, ErrNotANumber
		}
		val, n = f, 1
	} else {
		v, consumed, ok := parseIntegerWords(tokens)
		if !ok {
			return 0, 0, ErrNotANumber
		}
		val, n = v, consumed
	}

	if frac, m := parseFraction(tokens[n:]); m > 0 {
		val += frac
		n += m
	}
	return val, n, nil
}

// ParseQuantity interprets an entire token span as one number. The whole
// span must be consumed; leftover tokens mean the slot is not a number.
func ParseQuantity(span string) (float64, error) {
	tokens := strings.Fields(span)
	val, n, err := parseNumberTokens(tokens)
	if err != nil {
		return 0, err
	}
	if n != len(tokens) {
		return 0, ErrNotANumber
	}
	return val, nil
}
