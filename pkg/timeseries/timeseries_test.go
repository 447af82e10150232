package timeseries

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	result := SMA(data, 3)
	require.Len(t, result, len(data))
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
	require.InDelta(t, 2.0, result[2], 1e-9)
	require.InDelta(t, 3.0, result[3], 1e-9)
	require.InDelta(t, 5.0, result[5], 1e-9)
}

func TestSMAWindowOne(t *testing.T) {
	// Window 1 degenerates to the series itself.
	data := []float64{100, 110, 95.5}
	result := SMA(data, 1)
	for i := range data {
		require.InDelta(t, data[i], result[i], 1e-9)
	}
}

func TestSMASkipsNaNWindows(t *testing.T) {
	data := []float64{1, math.NaN(), 3, 4, 5}
	result := SMA(data, 2)
	require.True(t, math.IsNaN(result[1]))
	require.True(t, math.IsNaN(result[2]))
	require.InDelta(t, 3.5, result[3], 1e-9)
}

func TestPctChange(t *testing.T) {
	result := PctChange([]float64{100, 110})
	require.True(t, math.IsNaN(result[0]))
	require.InDelta(t, 10.0, result[1], 1e-9)

	result = PctChange([]float64{50, 45})
	require.InDelta(t, -10.0, result[1], 1e-9)
}

func TestPctChangeZeroPredecessor(t *testing.T) {
	result := PctChange([]float64{0, 10})
	require.True(t, math.IsNaN(result[1]))
}

func TestLogReturns(t *testing.T) {
	result := LogReturns([]float64{100, 110, 121})
	require.True(t, math.IsNaN(result[0]))
	require.InDelta(t, math.Log(1.1), result[1], 1e-12)
	require.InDelta(t, math.Log(1.1), result[2], 1e-12)
}

func TestLogReturnsNonPositive(t *testing.T) {
	// Zero and negative prices must not panic or produce Inf; the point is
	// simply undefined.
	result := LogReturns([]float64{100, 0, 50, -5, 10})
	require.True(t, math.IsNaN(result[1]))
	require.True(t, math.IsNaN(result[2]))
	require.True(t, math.IsNaN(result[3]))
	require.True(t, math.IsNaN(result[4]))
}

func TestSampleStdDev(t *testing.T) {
	require.InDelta(t, 1.0, SampleStdDev([]float64{1, 2, 3}), 1e-9)
	require.True(t, math.IsNaN(SampleStdDev([]float64{1})))
	require.InDelta(t, 1.0, SampleStdDev([]float64{1, math.NaN(), 2, 3}), 1e-9)
}

func TestAnnualizedVolatilityConstantSeries(t *testing.T) {
	// Constant prices have zero log-return variance over any window.
	vol := AnnualizedVolatility([]float64{42, 42, 42, 42, 42})
	require.InDelta(t, 0.0, vol, 1e-12)
}

func TestAnnualizedVolatility(t *testing.T) {
	prices := []float64{100, 110, 99, 105, 102}
	returns := LogReturns(prices)
	want := SampleStdDev(returns) * math.Sqrt(365)
	require.InDelta(t, want, AnnualizedVolatility(prices), 1e-12)
	require.Greater(t, AnnualizedVolatility(prices), 0.0)
}

func TestAnnualizedVolatilityInsufficient(t *testing.T) {
	require.True(t, math.IsNaN(AnnualizedVolatility([]float64{100})))
	require.True(t, math.IsNaN(AnnualizedVolatility(nil)))
}

func TestPearsonSelfCorrelation(t *testing.T) {
	r := []float64{1.2, -0.5, 3.1, 0.0, -2.2, 1.7}
	require.InDelta(t, 1.0, Pearson(r, r), 1e-12)
}

func TestPearsonInverse(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{4, 3, 2, 1}
	require.InDelta(t, -1.0, Pearson(x, y), 1e-12)
}

func TestPearsonSkipsNaNPairs(t *testing.T) {
	x := []float64{1, math.NaN(), 3, 4}
	y := []float64{2, 5, math.NaN(), 8}
	// Only positions 0 and 3 are joint observations.
	require.InDelta(t, 1.0, Pearson(x, y), 1e-12)
}

func TestPearsonDegenerate(t *testing.T) {
	require.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
	require.True(t, math.IsNaN(Pearson([]float64{2, 2, 2}, []float64{1, 2, 3})))
}
