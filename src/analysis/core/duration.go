package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rttPattern = regexp.MustCompile(`(?i)^([0-9]*\.?[0-9]+)\s*(ms|us|s)?$`)

// ParseRTT converts a human RTT string ("10ms", "500us", "1.5 s", "2") to
// seconds. A bare number is taken as seconds. Anything else, including the
// empty string and infinite or out-of-range values, yields NaN.
func ParseRTT(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}

	m := rttPattern.FindStringSubmatch(s)
	if m == nil {
		return finite(strconv.ParseFloat(s, 64))
	}

	v := finite(strconv.ParseFloat(m[1], 64))
	switch strings.ToLower(m[2]) {
	case "ms":
		return v / 1000.0
	case "us":
		return v / 1e6
	default:
		return v
	}
}

// FormatRTT renders seconds as milliseconds with at most three decimals,
// e.g. 0.0125 -> "12.5ms". Unknown values render as "".
func FormatRTT(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	ms := strconv.FormatFloat(seconds*1000.0, 'f', 3, 64)
	ms = strings.TrimRight(ms, "0")
	ms = strings.TrimSuffix(ms, ".")
	return ms + "ms"
}

// ParseThroughput coerces a throughput cell to Mbps; ok is false for a
// non-empty cell that is not a finite number.
func ParseThroughput(raw string) (v float64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN(), true
	}
	v = finite(strconv.ParseFloat(s, 64))
	return v, !math.IsNaN(v)
}

// finite maps parse failures, NaN and ±Inf (including overflow such as
// "1e400") to NaN.
func finite(v float64, err error) float64 {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
