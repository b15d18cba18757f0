package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/internal/service/cache"
	pkgcache "SectorPulse/pkg/cache"
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/util"
)

// HistoryStatus is the outcome of a history lookup.
type HistoryStatus string

const (
	HistoryFound  HistoryStatus = "found"
	HistoryEmpty  HistoryStatus = "empty"
	HistoryFailed HistoryStatus = "failed"
)

// HistoryResult carries the series when found. Err is set only for HistoryFailed.
type HistoryResult struct {
	Status HistoryStatus
	Series *models.PriceSeries
	Err    error
}

// Absent reports whether there is no usable series.
func (r HistoryResult) Absent() bool { return r.Status != HistoryFound }

// HistoryFetcher reads daily bars through the in-process TTL cache and an optional shared tier.
type HistoryFetcher struct {
	provider domrepo.MarketDataProvider
	cache    *cache.TTLCache
	shared   pkgcache.Service
	ttl      time.Duration
	metrics  domrepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewHistoryFetcher wires the fetcher. shared may be nil.
func NewHistoryFetcher(provider domrepo.MarketDataProvider, c *cache.TTLCache, shared pkgcache.Service, cfg *config.Config, m domrepo.Metrics, log *logger.Logger) *HistoryFetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryFetcher{
		provider: provider,
		cache:    c,
		shared:   shared,
		ttl:      cfg.Cache.HistoryTTL,
		metrics:  m,
		log:      log.With(logger.String("component", "history")),
		now:      time.Now,
	}
}

func HistoryKey(symbol string, period domrepo.Period) string {
	return fmt.Sprintf("history:%s:%s", symbol, period)
}

// FetchHistory returns the bar history for symbol over period. The error is
// non-nil only for invalid input or when ctx ends while waiting on the cache.
func (f *HistoryFetcher) FetchHistory(ctx context.Context, symbol string, period domrepo.Period) (HistoryResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return HistoryResult{}, domrepo.ErrInvalidSymbol
	}
	if !domrepo.IsValidPeriod(period) {
		return HistoryResult{}, fmt.Errorf("%w: %q", domrepo.ErrInvalidPeriod, period)
	}

	start := time.Now()
	key := HistoryKey(symbol, period)
	series, hit, err := cache.FetchAt(ctx, f.cache, key, f.ttl, func(ctx context.Context) (*models.PriceSeries, time.Time, error) {
		s, err := f.load(ctx, key, symbol, period)
		if err != nil {
			return nil, time.Time{}, err
		}
		return s, s.FetchedAt, nil
	})
	f.metrics.RecordCacheLookup("history", hit)
	f.metrics.RecordLatency("fetch_history", time.Since(start).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return HistoryResult{}, err
		}
		f.log.Warn("history fetch failed",
			logger.String("symbol", symbol),
			logger.String("period", string(period)),
			logger.Error(err))
		return HistoryResult{Status: HistoryFailed, Err: err}, nil
	}
	if series.Len() == 0 {
		return HistoryResult{Status: HistoryEmpty, Series: series}, nil
	}
	return HistoryResult{Status: HistoryFound, Series: series}, nil
}

func (f *HistoryFetcher) load(ctx context.Context, key, symbol string, period domrepo.Period) (*models.PriceSeries, error) {
	if f.shared != nil {
		var cached models.PriceSeries
		err := f.shared.Get(ctx, key, &cached)
		if err == nil && f.now().Sub(cached.FetchedAt) < f.ttl {
			f.metrics.RecordCacheLookup("history_shared", true)
			return &cached, nil
		}
		f.metrics.RecordCacheLookup("history_shared", false)
		if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
			f.log.Debug("shared cache read failed", logger.String("key", key), logger.Error(err))
		}
	}

	bars, err := f.provider.DailyBars(ctx, symbol, period)
	if err != nil {
		f.metrics.RecordFetch("daily_bars", "failed")
		return nil, err
	}
	outcome := "found"
	if len(bars) == 0 {
		outcome = "empty"
	}
	f.metrics.RecordFetch("daily_bars", outcome)

	series := &models.PriceSeries{Symbol: symbol, Period: string(period), Bars: bars, FetchedAt: f.now()}
	if f.shared != nil {
		if err := f.shared.Set(ctx, key, series, f.ttl); err != nil {
			f.log.Debug("shared cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return series, nil
}
