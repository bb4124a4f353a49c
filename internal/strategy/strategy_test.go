package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signals/internal/series"
)

func seriesFromCloses(closes []float64) *series.Series {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	pts := make([]series.Point, len(closes))
	for i, c := range closes {
		pts[i] = series.Point{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return series.New("TEST", pts)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestInsufficientHistoryHolds(t *testing.T) {
	sr := seriesFromCloses(repeat(100, 5))

	strategies := []Strategy{
		NewMovingAverage(),
		NewMACD(),
		NewBollinger(),
		NewMomentum(),
		NewMeanReversion(),
		NewTrend(),
		NewVolumePrice(),
		NewEnsembleFromNames(nil),
	}
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			sig := s.GenerateSignal(sr, sr.Len()-1)
			assert.Equal(t, Hold, sig.Type)
			assert.Zero(t, sig.Confidence)
			assert.Equal(t, "insufficient data", sig.Reason)
		})
	}
}

func TestNewRegistry(t *testing.T) {
	strats := New([]string{"moving-average", "macd", "bogus", "trend"})
	require.Len(t, strats, 3)
	assert.Equal(t, "Moving Average Crossover", strats[0].Name())
	assert.Equal(t, "MACD Strategy", strats[1].Name())
	assert.Equal(t, "Trend Following", strats[2].Name())

	for _, s := range strats {
		assert.False(t, s.RequiresFundamentals())
	}
}

func TestKnown(t *testing.T) {
	for _, name := range []string{"moving-average", "macd", "bollinger", "momentum", "mean-reversion", "trend", "volume-price"} {
		assert.True(t, Known(name), name)
	}
	assert.False(t, Known("bolinger"))
	assert.False(t, Known(""))
}

func TestMovingAverageCrossovers(t *testing.T) {
	flat := repeat(100, 220)

	t.Run("golden cross", func(t *testing.T) {
		closes := append(append([]float64{}, flat...), 10000)
		sr := seriesFromCloses(closes)
		sig := NewMovingAverage().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Long, sig.Type)
		assert.Contains(t, sig.Reason, "Golden Cross")
		assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
	})

	t.Run("death cross", func(t *testing.T) {
		closes := append(append([]float64{}, flat...), 1)
		sr := seriesFromCloses(closes)
		sig := NewMovingAverage().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Short, sig.Type)
		assert.Contains(t, sig.Reason, "Death Cross")
	})

	t.Run("weakening spread exits", func(t *testing.T) {
		closes := append(append([]float64{}, flat...), 10000, 50)
		sr := seriesFromCloses(closes)
		sig := NewMovingAverage().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Exit, sig.Type)
		assert.Contains(t, sig.Reason, "Trend weakening")
	})

	t.Run("flat series holds", func(t *testing.T) {
		sr := seriesFromCloses(append(append([]float64{}, flat...), 100))
		sig := NewMovingAverage().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Hold, sig.Type)
	})
}

func TestMACDSignFlip(t *testing.T) {
	// A long decline followed by a sharp rally flips the histogram
	// positive somewhere in the rally. The flip bar must come out Long.
	var closes []float64
	for i := 0; i < 60; i++ {
		closes = append(closes, 200-float64(i))
	}
	for i := 0; i < 30; i++ {
		closes = append(closes, 141+3*float64(i))
	}
	sr := seriesFromCloses(closes)
	s := NewMACD()

	flipped := false
	for i := s.MinHistory(); i < sr.Len(); i++ {
		sig := s.GenerateSignal(sr, i)
		if sig.Type == Long {
			flipped = true
			assert.Greater(t, sig.Confidence, 0.0)
			assert.Contains(t, sig.Reason, "MACD crossed above signal line")
			assert.Greater(t, sig.Metrics["histogram"], 0.0)
			break
		}
	}
	assert.True(t, flipped, "expected a bullish histogram flip during the rally")
}

func TestMACDFlatSeriesHolds(t *testing.T) {
	sr := seriesFromCloses(repeat(100, 50))
	sig := NewMACD().GenerateSignal(sr, sr.Len()-1)
	assert.Equal(t, Hold, sig.Type)
}

func TestBollingerSignals(t *testing.T) {
	tests := []struct {
		name      string
		lastClose float64
		want      SignalType
	}{
		{"near lower band", 90, Long},
		{"near upper band", 110, Short},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closes := append(repeat(100, 21), tt.lastClose)
			sr := seriesFromCloses(closes)
			sig := NewBollinger().GenerateSignal(sr, sr.Len()-1)
			assert.Equal(t, tt.want, sig.Type)
			assert.Greater(t, sig.Confidence, 0.5)
		})
	}

	t.Run("reversion to middle exits", func(t *testing.T) {
		var closes []float64
		for i := 0; i < 21; i++ {
			if i%2 == 0 {
				closes = append(closes, 95)
			} else {
				closes = append(closes, 105)
			}
		}
		closes = append(closes, 100)
		sr := seriesFromCloses(closes)
		sig := NewBollinger().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Exit, sig.Type)
	})

	t.Run("zero width holds", func(t *testing.T) {
		sr := seriesFromCloses(repeat(100, 22))
		sig := NewBollinger().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Hold, sig.Type)
	})
}

func TestMomentumSignals(t *testing.T) {
	t.Run("oversold with positive momentum goes long", func(t *testing.T) {
		// Heavy losses early in the RSI window keep RSI depressed while
		// the last ten bars drift up, turning the rate of change positive.
		closes := []float64{100, 100, 90, 80, 70, 60}
		for i := 1; i <= 10; i++ {
			closes = append(closes, 60+0.5*float64(i))
		}
		sr := seriesFromCloses(closes)
		sig := NewMomentum().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Long, sig.Type)
		assert.LessOrEqual(t, sig.Metrics["rsi"], 30.0)
		assert.Greater(t, sig.Metrics["roc"], 0.0)
	})

	t.Run("neutral rsi exits", func(t *testing.T) {
		var closes []float64
		for i := 0; i < 16; i++ {
			if i%2 == 0 {
				closes = append(closes, 100)
			} else {
				closes = append(closes, 101)
			}
		}
		sr := seriesFromCloses(closes)
		sig := NewMomentum().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Exit, sig.Type)
		assert.InDelta(t, 50, sig.Metrics["rsi"], 1e-9)
	})
}

func TestMeanReversionSignals(t *testing.T) {
	t.Run("stretched below band goes long", func(t *testing.T) {
		closes := append(repeat(100, 21), 90)
		sr := seriesFromCloses(closes)
		sig := NewMeanReversion().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Long, sig.Type)
		assert.Less(t, sig.Metrics["deviation"], -0.02)
	})

	t.Run("stretched above band goes short", func(t *testing.T) {
		closes := append(repeat(100, 21), 110)
		sr := seriesFromCloses(closes)
		sig := NewMeanReversion().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Short, sig.Type)
	})

	t.Run("at the mean exits", func(t *testing.T) {
		sr := seriesFromCloses(repeat(100, 22))
		sig := NewMeanReversion().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Exit, sig.Type)
	})
}

func TestTrendSignals(t *testing.T) {
	t.Run("breakout above resistance goes long", func(t *testing.T) {
		base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		var pts []series.Point
		for i := 0; i < 24; i++ {
			pts = append(pts, series.Point{Date: base.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000})
		}
		pts = append(pts, series.Point{Date: base.AddDate(0, 0, 24), Open: 110, High: 120, Low: 110, Close: 118, Volume: 1000})
		sr := series.New("TEST", pts)

		sig := NewTrend().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Long, sig.Type)
		assert.Contains(t, sig.Reason, "breakout above resistance")
		assert.InDelta(t, 101, sig.Metrics["resistance"], 1e-9)
	})

	t.Run("reversion to midpoint exits", func(t *testing.T) {
		// Thirteen up days out of twenty keep the trend gate open, but
		// the pullback leaves the close within one ATR of the midpoint.
		closes := repeat(100, 5)
		for i := 1; i <= 13; i++ {
			closes = append(closes, 100+float64(i))
		}
		for i := 1; i <= 7; i++ {
			closes = append(closes, 113-float64(i))
		}
		sr := seriesFromCloses(closes)

		sig := NewTrend().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Exit, sig.Type)
		assert.Equal(t, "Price reverting to mean", sig.Reason)
		assert.InDelta(t, 0.65, sig.Metrics["trend_strength"], 1e-9)
	})
}

func TestVolumePriceSignals(t *testing.T) {
	buildSeries := func(volumes []int64, lastCloses [2]float64) *series.Series {
		base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
		var pts []series.Point
		for i, v := range volumes {
			c := 100.0
			if i == len(volumes)-2 {
				c = lastCloses[0]
			}
			if i == len(volumes)-1 {
				c = lastCloses[1]
			}
			pts = append(pts, series.Point{Date: base.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: v})
		}
		return series.New("TEST", pts)
	}

	flatVolumes := func(n int) []int64 {
		out := make([]int64, n)
		for i := range out {
			out[i] = 1000
		}
		return out
	}

	t.Run("spike with up move goes long", func(t *testing.T) {
		volumes := append(flatVolumes(21), 3000)
		sr := buildSeries(volumes, [2]float64{100, 103})
		sig := NewVolumePrice().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Long, sig.Type)
		assert.InDelta(t, 3.0, sig.Metrics["volume_ratio"], 1e-9)
		assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
	})

	t.Run("spike with down move goes short", func(t *testing.T) {
		volumes := append(flatVolumes(21), 3000)
		sr := buildSeries(volumes, [2]float64{100, 97})
		sig := NewVolumePrice().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Short, sig.Type)
	})

	t.Run("volume drying up after spike exits", func(t *testing.T) {
		volumes := append(flatVolumes(20), 3000, 400)
		sr := buildSeries(volumes, [2]float64{103, 103})
		sig := NewVolumePrice().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Exit, sig.Type)
	})

	t.Run("spike without price move holds", func(t *testing.T) {
		volumes := append(flatVolumes(21), 3000)
		sr := buildSeries(volumes, [2]float64{100, 100.5})
		sig := NewVolumePrice().GenerateSignal(sr, sr.Len()-1)
		assert.Equal(t, Hold, sig.Type)
	})
}
