package core

import "math"

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation over the
// non-NaN values of data, and reports how many values were used. With no
// usable value mean and std are NaN.
func CalculateMeanStd(data []float64) (float64, float64, int) {
	sum := 0.0
	n := 0
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean := sum / float64(n)

	// For single element, return std = 0
	if n == 1 {
		return mean, 0, 1
	}

	// Standard deviation with N denominator (population std)
	varianceSum := 0.0
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		varianceSum += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(varianceSum / float64(n)), n
}

// -----------------------------------------------------------------------------

// MeanOfAvailable is the arithmetic mean of the non-NaN values (NaN if none).
func MeanOfAvailable(data []float64) float64 {
	mean, _, _ := CalculateMeanStd(data)
	return mean
}

// -----------------------------------------------------------------------------

// CalculateJainIndex computes Jain's fairness index (sum x)^2 / (n * sum x^2)
// over the non-NaN values. It is NaN with no usable value and 0 when every
// value is zero.
func CalculateJainIndex(values []float64) float64 {
	sum, sumSq := 0.0, 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		sumSq += v * v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	if sumSq == 0 {
		return 0
	}
	return (sum * sum) / (float64(n) * sumSq)
}
