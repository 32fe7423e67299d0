// Package indicator provides pure technical-indicator functions.
//
// Every function returns a series of the same length as its input so that
// output index i is derived only from inputs [0..i]. Positions inside the
// warm-up window, where the look-back is not yet full, hold NaN and must
// not be used for decisions.
package indicator

import "math"

// SMA calculates the Simple Moving Average over the given period.
// Warm-up: the first period-1 values are NaN.
func SMA(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return result
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result[period-1] = sum / float64(period)

	// Rolling calculation
	for i := period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		result[i] = sum / float64(period)
	}

	return result
}

// EMA calculates the Exponential Moving Average over the given period,
// seeded with the SMA of the first period values.
// Warm-up: the first period-1 values are NaN.
func EMA(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return result
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	result[period-1] = ema

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result
}

// RSI calculates the Relative Strength Index with Wilder smoothing: the
// first average gain/loss is a simple mean over the first period deltas,
// after which avg = (avg*(period-1) + delta) / period. A window with no
// losses yields 100, not a division failure.
// Warm-up: the first period values are NaN (one delta is consumed per bar).
func RSI(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period <= 0 || len(values) <= period {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// StdDev calculates the rolling sample standard deviation over the given
// period.
// Warm-up: the first period-1 values are NaN.
func StdDev(values []float64, period int) []float64 {
	result := nanSeries(len(values))
	if period < 2 || len(values) < period {
		return result
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		var sum float64
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)
		var variance float64
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		result[i] = math.Sqrt(variance / float64(period-1))
	}

	return result
}

// RunningMax calculates the running maximum of the series. It has no
// warm-up: index 0 is defined.
func RunningMax(values []float64) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}
	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		result[i] = peak
	}
	return result
}

// Defined reports whether an indicator value is outside its warm-up window.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
