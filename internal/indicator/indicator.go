// Package indicator provides pure numeric functions over daily price
// slices. Functions never error on short input; they degrade to neutral
// values and let callers gate on the strategy's minimum history.
package indicator

import "math"

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// SMA returns the simple moving average of the last period values.
// With fewer than period values it averages what is available.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 || period <= 0 {
		return 0
	}
	if len(values) < period {
		return Mean(values)
	}
	return Mean(values[len(values)-period:])
}

// EMA returns the full exponential moving average array, seeded with the
// SMA of the first period values. Entries before period-1 are zero.
func EMA(values []float64, period int) []float64 {
	ema := make([]float64, len(values))
	if len(values) < period || period <= 0 {
		return ema
	}
	ema[period-1] = Mean(values[:period])
	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema[i] = (values[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// MACD returns the MACD line, signal line and histogram arrays for the
// given close prices.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine, histogram []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macd, signal)
	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, histogram
}

// RSI returns the relative strength index over the trailing window.
// Fewer than period+1 closes yields the neutral 50; zero average loss
// yields 100.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}
	window := closes[len(closes)-period-1:]
	var gain, loss float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gain += change
		} else {
			loss += -change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ATR returns the average true range array. Before index period the
// value is the expanding mean of the true ranges seen so far.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n {
		return nil
	}
	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	atr := make([]float64, n)
	for i := range tr {
		if i < period {
			atr[i] = Mean(tr[:i+1])
		} else {
			atr[i] = Mean(tr[i-period+1 : i+1])
		}
	}
	return atr
}

// Bollinger returns the upper, middle and lower bands for the trailing
// period with k standard deviations.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower float64) {
	middle = SMA(closes, period)
	window := closes
	if len(closes) > period {
		window = closes[len(closes)-period:]
	}
	dev := StdDev(window) * k
	return middle + dev, middle, middle - dev
}

// VolumeRatio returns the latest volume divided by the mean volume of the
// trailing window, excluding the latest bar. Returns 1 when there is not
// enough history or the trailing mean is zero.
func VolumeRatio(volumes []float64, window int) float64 {
	if len(volumes) < 2 {
		return 1
	}
	trailing := volumes[:len(volumes)-1]
	if len(trailing) > window {
		trailing = trailing[len(trailing)-window:]
	}
	avg := Mean(trailing)
	if avg == 0 {
		return 1
	}
	return volumes[len(volumes)-1] / avg
}

// MaxDrawdown returns the largest fractional peak-to-trough decline
// observed across prices.
func MaxDrawdown(prices []float64) float64 {
	var peak, maxDD float64
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			dd := (peak - p) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// TrendStrength returns the fraction of up-days inside the trailing
// period and whether that fraction marks an uptrend.
func TrendStrength(closes []float64, period int) (strength float64, uptrend bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	window := closes[len(closes)-period-1:]
	up := 0
	for i := 1; i < len(window); i++ {
		if window[i] > window[i-1] {
			up++
		}
	}
	strength = float64(up) / float64(period)
	return strength, strength > 0.5
}

// RateOfChange returns the fractional price change over the trailing
// period, 0 when there is not enough history.
func RateOfChange(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 0
	}
	base := closes[len(closes)-period-1]
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base
}

// SupportResistance returns the lowest low and highest high of the
// trailing period as dynamic support and resistance levels.
func SupportResistance(highs, lows []float64, period int) (support, resistance float64) {
	if len(highs) == 0 || len(lows) == 0 {
		return 0, 0
	}
	hw, lw := highs, lows
	if len(hw) > period {
		hw = hw[len(hw)-period:]
	}
	if len(lw) > period {
		lw = lw[len(lw)-period:]
	}
	support = lw[0]
	for _, v := range lw {
		if v < support {
			support = v
		}
	}
	resistance = hw[0]
	for _, v := range hw {
		if v > resistance {
			resistance = v
		}
	}
	return support, resistance
}
