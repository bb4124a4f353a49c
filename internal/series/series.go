// Package series defines the daily OHLCV price history that indicators,
// strategies and the backtest engine operate on.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Point is one daily OHLCV bar.
type Point struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks if a point has valid data
func (p *Point) Validate() error {
	if p.Date.IsZero() {
		return errors.New("point date is zero")
	}
	if p.Open <= 0 || p.High <= 0 || p.Low <= 0 || p.Close <= 0 {
		return errors.New("point prices must be positive")
	}
	if p.High < p.Low {
		return errors.New("point high cannot be less than low")
	}
	if p.Volume < 0 {
		return errors.New("point volume cannot be negative")
	}
	return nil
}

// Series is a chronologically ordered daily price history for one symbol.
// Strategies and the backtest engine treat it as read-only.
type Series struct {
	Symbol string  `json:"symbol"`
	Points []Point `json:"points"`
}

func New(symbol string, points []Point) *Series {
	s := &Series{Symbol: symbol, Points: points}
	s.Sort()
	return s
}

// Sort orders the points by date ascending.
func (s *Series) Sort() {
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})
}

// Validate checks ordering, positivity and duplicates across the whole series.
func (s *Series) Validate() error {
	if s.Symbol == "" {
		return errors.New("series symbol cannot be empty")
	}
	for i := range s.Points {
		if err := s.Points[i].Validate(); err != nil {
			return fmt.Errorf("invalid point at index %d: %w", i, err)
		}
		if i > 0 && !s.Points[i].Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("point at index %d is out of order or duplicated: %s", i, s.Points[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

func (s *Series) Len() int { return len(s.Points) }

// Closes returns the close prices up to and including index i.
// Pass len(s.Points)-1 for the full history.
func (s *Series) Closes(i int) []float64 {
	out := make([]float64, 0, i+1)
	for k := 0; k <= i && k < len(s.Points); k++ {
		out = append(out, s.Points[k].Close)
	}
	return out
}

func (s *Series) Highs(i int) []float64 {
	out := make([]float64, 0, i+1)
	for k := 0; k <= i && k < len(s.Points); k++ {
		out = append(out, s.Points[k].High)
	}
	return out
}

func (s *Series) Lows(i int) []float64 {
	out := make([]float64, 0, i+1)
	for k := 0; k <= i && k < len(s.Points); k++ {
		out = append(out, s.Points[k].Low)
	}
	return out
}

func (s *Series) Volumes(i int) []float64 {
	out := make([]float64, 0, i+1)
	for k := 0; k <= i && k < len(s.Points); k++ {
		out = append(out, float64(s.Points[k].Volume))
	}
	return out
}

// Clip returns a sub-series with points inside [start, end] inclusive.
func (s *Series) Clip(start, end time.Time) *Series {
	var pts []Point
	for _, p := range s.Points {
		if !p.Date.Before(start) && !p.Date.After(end) {
			pts = append(pts, p)
		}
	}
	return &Series{Symbol: s.Symbol, Points: pts}
}

// After returns a sub-series with points strictly after date.
func (s *Series) After(date time.Time) *Series {
	var pts []Point
	for _, p := range s.Points {
		if p.Date.After(date) {
			pts = append(pts, p)
		}
	}
	return &Series{Symbol: s.Symbol, Points: pts}
}

// Last returns the most recent point, or nil for an empty series.
func (s *Series) Last() *Point {
	if len(s.Points) == 0 {
		return nil
	}
	return &s.Points[len(s.Points)-1]
}
