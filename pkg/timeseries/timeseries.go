// Package timeseries holds the rolling statistics used by the analytics
// queries. All functions are pure, operate on float64 slices ordered oldest
// to newest, and mark undefined points with NaN instead of failing.
package timeseries

import "math"

// periodsPerYear annualizes daily statistics (crypto trades every day).
const periodsPerYear = 365

// SMA produces the trailing simple moving average for the supplied values.
// Positions before the first full window, or windows containing NaN, are NaN.
func SMA(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	for i := range result {
		result[i] = math.NaN()
	}
	if window <= 0 || len(values) < window {
		return result
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		valid := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			sum += values[j]
		}
		if valid {
			result[i] = sum / float64(window)
		}
	}
	return result
}

// PctChange returns period-over-period percentage returns,
// 100 * (v_t / v_{t-1} - 1). The first position, and any position whose
// predecessor is zero or NaN, is NaN.
func PctChange(values []float64) []float64 {
	result := make([]float64, len(values))
	for i := range result {
		result[i] = math.NaN()
	}
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			continue
		}
		result[i] = 100 * (cur/prev - 1)
	}
	return result
}

// LogReturns returns ln(v_t / v_{t-1}) per position. The first position is
// NaN, as is any position where the ratio is undefined or non-positive.
func LogReturns(values []float64) []float64 {
	result := make([]float64, len(values))
	for i := range result {
		result[i] = math.NaN()
	}
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev <= 0 || cur <= 0 {
			continue
		}
		result[i] = math.Log(cur / prev)
	}
	return result
}

// SampleStdDev computes the sample standard deviation of the non-NaN values.
// Fewer than two valid observations yield NaN.
func SampleStdDev(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

// AnnualizedVolatility scales the sample standard deviation of daily log
// returns by sqrt(365). NaN when fewer than two returns are defined.
func AnnualizedVolatility(prices []float64) float64 {
	sd := SampleStdDev(LogReturns(prices))
	if math.IsNaN(sd) {
		return math.NaN()
	}
	return sd * math.Sqrt(periodsPerYear)
}

// Pearson computes the Pearson correlation coefficient over positions where
// both series hold a value. NaN when fewer than two joint observations exist
// or either side has zero variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var sumX, sumY float64
	var count int
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		sumX += x[i]
		sumY += y[i]
		count++
	}
	if count < 2 {
		return math.NaN()
	}
	meanX := sumX / float64(count)
	meanY := sumY / float64(count)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
