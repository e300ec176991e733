package core

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRTT(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"10ms", 0.01},
		{"500us", 0.0005},
		{"2s", 2.0},
		{"2", 2.0},
		{"1.5 ms", 0.0015},
		{"  20MS ", 0.02},
		{".5s", 0.5},
		{"100US", 0.0001},
		{"1e-3", 0.001},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.InDelta(t, tc.want, ParseRTT(tc.in), 1e-15)
		})
	}
}

func TestParseRTTUnknown(t *testing.T) {
	for _, in := range []string{"abc", "", "   ", "10 minutes", "ms", "5ns"} {
		assert.True(t, math.IsNaN(ParseRTT(in)), "input %q", in)
	}
}

func TestFormatRTT(t *testing.T) {
	assert.Equal(t, "10ms", FormatRTT(0.01))
	assert.Equal(t, "0.5ms", FormatRTT(0.0005))
	assert.Equal(t, "2000ms", FormatRTT(2))
	assert.Equal(t, "12.346ms", FormatRTT(0.0123456))
	assert.Equal(t, "0ms", FormatRTT(0))
	assert.Equal(t, "", FormatRTT(math.NaN()))
	assert.Equal(t, "", FormatRTT(math.Inf(1)))
}

func TestRTTRoundTrip(t *testing.T) {
	for in, want := range map[string]string{
		"10ms":  "10ms",
		"20ms":  "20ms",
		"500us": "0.5ms",
		"2s":    "2000ms",
		"2":     "2000ms",
		"abc":   "",
		"":      "",
	} {
		assert.Equal(t, want, FormatRTT(ParseRTT(in)), "input %q", in)
	}
}

func TestParseThroughput(t *testing.T) {
	v, ok := ParseThroughput(" 12.5 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = ParseThroughput("")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))

	v, ok = ParseThroughput("n/a")
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))

	for _, raw := range []string{"inf", "-Inf", "+Infinity", "1e400", "NaN"} {
		v, ok = ParseThroughput(raw)
		assert.False(t, ok, raw)
		assert.True(t, math.IsNaN(v), raw)
	}
}

func TestParseRTTRejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"Inf", "-inf", "1e400", "NaN", "1" + strings.Repeat("0", 400) + "ms"} {
		assert.True(t, math.IsNaN(ParseRTT(raw)), raw)
	}
}
