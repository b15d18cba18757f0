package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"SectorPulse/internal/domain/models"
)

const (
	RSIPeriods = 14
	ShortMA    = 20
	LongMA     = 60
)

// MovingAverage computes the trailing simple mean of closes over window bars.
// The first window-1 outputs are NaN; a non-positive window yields all NaN.
func MovingAverage(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(closes); i++ {
		out[i] = stat.Mean(closes[i-window+1:i+1], nil)
	}
	return out
}

// RSI computes the relative strength index with simple (not Wilder) averaging:
// gains and losses of the bar-to-bar deltas are averaged over the trailing periods
// deltas, and RSI = 100 - 100/(1+avgGain/avgLoss).
//
// The output has len(closes) entries. The first periods entries are NaN, and so is
// any point whose average loss is zero.
func RSI(closes []float64, periods int) []float64 {
	out := nanSlice(len(closes))
	if periods <= 0 || len(closes) <= periods {
		return out
	}

	// gains[i], losses[i] describe the move into bar i; index 0 has no move
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	for i := periods; i < len(closes); i++ {
		avgGain := stat.Mean(gains[i-periods+1:i+1], nil)
		avgLoss := stat.Mean(losses[i-periods+1:i+1], nil)
		if avgLoss == 0 {
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Compute derives RSI(14), MA(20) and MA(60) for a series. The series is not modified.
func Compute(series *models.PriceSeries) models.IndicatorSet {
	closes := series.Closes()
	return models.IndicatorSet{
		RSI14: RSI(closes, RSIPeriods),
		MA20:  MovingAverage(closes, ShortMA),
		MA60:  MovingAverage(closes, LongMA),
	}
}

// Latest returns the last value of a stream and whether it is defined.
func Latest(values []float64) (float64, bool) {
	if len(values) == 0 {
		return math.NaN(), false
	}
	v := values[len(values)-1]
	return v, !math.IsNaN(v)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
