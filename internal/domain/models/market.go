package models

import (
	"encoding/json"
	"math"
	"time"
)

// PriceBar is one daily OHLCV observation.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is the bar history of one symbol over one period, oldest first.
// Treat it as read-only once fetched; it is shared through the cache.
type PriceSeries struct {
	Symbol    string     `json:"symbol"`
	Period    string     `json:"period"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes returns a fresh slice of closing prices.
func (s *PriceSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Last returns the most recent bar.
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Values is an indicator stream. NaN marks an undefined point and encodes as JSON null.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(v))
	for i := range v {
		if !math.IsNaN(v[i]) && !math.IsInf(v[i], 0) {
			out[i] = &v[i]
		}
	}
	return json.Marshal(out)
}

func (v *Values) UnmarshalJSON(b []byte) error {
	var in []*float64
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	out := make(Values, len(in))
	for i, p := range in {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*v = out
	return nil
}

// IndicatorSet holds the derived streams for one series, aligned with its bars.
type IndicatorSet struct {
	RSI14 Values `json:"rsi14"`
	MA20  Values `json:"ma20"`
	MA60  Values `json:"ma60"`
}

// TrendState is the qualitative trend of a series.
type TrendState string

const (
	TrendBullish          TrendState = "bullish"
	TrendBearish          TrendState = "bearish"
	TrendConsolidating    TrendState = "consolidating"
	TrendInsufficientData TrendState = "insufficient_data"
)
