package repository

import (
	"context"
	"time"

	"SectorPulse/internal/domain/models"
)

// MarketDataProvider is the upstream source of bars, quotes and stock details.
// Implementations may fail or return empty data; callers degrade instead of propagating.
type MarketDataProvider interface {
	DailyBars(ctx context.Context, symbol string, period Period) ([]models.PriceBar, error)
	// RecentBars returns daily bars over the trailing lookback window ending now.
	RecentBars(ctx context.Context, symbol string, lookback time.Duration) ([]models.PriceBar, error)
	// PreviousClose returns the prior session's close, or ErrNoPreviousClose.
	PreviousClose(ctx context.Context, symbol string) (float64, error)
	RecentNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
	InstitutionalHolders(ctx context.Context, symbol string) ([]models.Holder, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLocale string) (string, error)
}

type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, s *models.SectorSnapshot) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, outcome string)
	RecordCacheLookup(cache string, hit bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSectorChange(symbol string, change float64)
}
