package trend

import (
	"math"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/services/indicators"
)

// MinBars is the history needed for a defined long moving average.
const MinBars = indicators.LongMA

// Levels are the latest values the classifier looks at.
type Levels struct {
	Close float64
	MA20  float64
	MA60  float64
	RSI   float64 // informational only, may be NaN
}

// Classify returns the trend of a series from its latest close and moving averages.
func Classify(series *models.PriceSeries) models.TrendState {
	if series.Len() < MinBars {
		return models.TrendInsufficientData
	}
	set := indicators.Compute(series)
	last, _ := series.Last()
	rsi, _ := indicators.Latest(set.RSI14)
	ma20, _ := indicators.Latest(set.MA20)
	ma60, _ := indicators.Latest(set.MA60)
	return ClassifyLevels(Levels{Close: last.Close, MA20: ma20, MA60: ma60, RSI: rsi})
}

// ClassifyLevels applies the ordering rule: close > MA20 > MA60 is bullish, the
// mirror is bearish, anything else consolidates. Undefined averages give
// insufficient_data. RSI does not gate the decision.
func ClassifyLevels(l Levels) models.TrendState {
	if math.IsNaN(l.MA20) || math.IsNaN(l.MA60) || math.IsNaN(l.Close) {
		return models.TrendInsufficientData
	}
	switch {
	case l.Close > l.MA20 && l.MA20 > l.MA60:
		return models.TrendBullish
	case l.Close < l.MA20 && l.MA20 < l.MA60:
		return models.TrendBearish
	default:
		return models.TrendConsolidating
	}
}
