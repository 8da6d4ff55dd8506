package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Add 500 calories.", "add 500 calories"},
		{"  Hey,  add   500 calories!  ", "add 500 calories"},
		{"Okay please log weight 180", "log weight 180"},
		{"Woke up at 7:30 A.M.", "woke up at 7:30 am"},
		{"I slept 7.5 hours", "i slept 7.5 hours"},
		{"", ""},
		{"um uh vegetables, 2", "vegetables 2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Add 500 calories.",
		"Hey, I slept seven and a half hours!",
		"WOKE UP AT SEVEN THIRTY P.M.",
		"   ",
		"ok ok okay hey",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
