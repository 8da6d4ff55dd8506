package nlu

import "strings"

// Filler words stripped from the front of an utterance before matching.
// STT output often opens with these after the wake phrase.
var fillerWords = map[string]bool{
	"hey":    true,
	"ok":     true,
	"okay":   true,
	"please": true,
	"um":     true,
	"uh":     true,
	"so":     true,
}

var punctReplacer = strings.NewReplacer(
	"a.m.", "am",
	"p.m.", "pm",
	"a.m", "am",
	"p.m", "pm",
	",", " ",
	"!", " ",
	"?", " ",
	";", " ",
)

// Normalize folds an utterance into the form the grammar matchers
// expect: lower case, no punctuation, single spaces, no leading filler.
// Idempotent.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = punctReplacer.Replace(s)

	// Trailing period from sentence-style STT output. Decimal points
	// inside a quantity ("7.5") are kept.
	s = strings.TrimRight(s, ". ")

	fields := strings.Fields(s)
	for len(fields) > 0 && fillerWords[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}
