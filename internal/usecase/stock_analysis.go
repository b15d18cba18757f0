package usecase

import (
	"context"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/internal/services/indicators"
	"SectorPulse/internal/services/trend"
	"SectorPulse/pkg/util"
)

const (
	reasonNoData      = "no data"
	reasonUnavailable = "data source unavailable"
)

// StockAnalysisUseCase combines history, indicators and trend for one symbol.
type StockAnalysisUseCase struct {
	history *HistoryFetcher
}

func NewStockAnalysisUseCase(h *HistoryFetcher) *StockAnalysisUseCase {
	return &StockAnalysisUseCase{history: h}
}

func (uc *StockAnalysisUseCase) Analyze(ctx context.Context, symbol string, period domrepo.Period) (*models.StockAnalysis, error) {
	res, err := uc.history.FetchHistory(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	out := &models.StockAnalysis{Symbol: util.NormalizeSymbol(symbol), Period: string(period)}
	switch res.Status {
	case HistoryFailed:
		out.Reason = reasonUnavailable
		return out, nil
	case HistoryEmpty:
		out.Reason = reasonNoData
		return out, nil
	}

	series := res.Series
	set := indicators.Compute(series)
	last, _ := series.Last()

	out.Available = true
	out.Bars = series.Bars
	out.Indicators = &set
	out.LastClose = last.Close
	out.Trend = trend.Classify(series)

	if n := series.Len(); n >= 2 {
		if change, ok := percentChange(last.Close, series.Bars[n-2].Close); ok {
			out.ChangePercent = &change
		}
	}
	if rsi, ok := indicators.Latest(set.RSI14); ok {
		out.LatestRSI = &rsi
	}
	return out, nil
}
