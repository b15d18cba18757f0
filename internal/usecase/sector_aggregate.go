package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/internal/service/cache"
	pkgcache "SectorPulse/pkg/cache"
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/util"
)

// SectorCacheKey holds the whole-universe snapshot. The universe is fixed per
// process; instances sharing the Redis tier may differ, so shared reads are checked.
const SectorCacheKey = "sector:universe"

const publishTimeout = 5 * time.Second

// SectorAggregateUseCase builds one row per universe member. Members are
// processed independently: any failure leaves only that member's row at no_data.
type SectorAggregateUseCase struct {
	provider     domrepo.MarketDataProvider
	cache        *cache.TTLCache
	shared       pkgcache.Service
	publisher    domrepo.SnapshotPublisher
	metrics      domrepo.Metrics
	log          *logger.Logger
	universe     []config.SectorMember
	window       time.Duration
	workers      int
	fetchTimeout time.Duration
	ttl          time.Duration
	now          func() time.Time
	newID        func() string
}

// NewSectorAggregateUseCase wires the aggregator. shared and pub may be nil.
func NewSectorAggregateUseCase(p domrepo.MarketDataProvider, c *cache.TTLCache, shared pkgcache.Service, pub domrepo.SnapshotPublisher, cfg *config.Config, m domrepo.Metrics, log *logger.Logger) *SectorAggregateUseCase {
	if log == nil {
		log = logger.Nop()
	}
	workers := cfg.Sector.Workers
	if workers < 1 {
		workers = 1
	}
	return &SectorAggregateUseCase{
		provider:     p,
		cache:        c,
		shared:       shared,
		publisher:    pub,
		metrics:      m,
		log:          log.With(logger.String("component", "sector")),
		universe:     append([]config.SectorMember(nil), cfg.Sector.Universe...),
		window:       cfg.Sector.Window,
		workers:      workers,
		fetchTimeout: cfg.Sector.FetchTimeout,
		ttl:          cfg.Cache.SectorTTL,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Aggregate returns the cached snapshot or collects a fresh one. It fails only
// when ctx ends before a snapshot is available.
func (uc *SectorAggregateUseCase) Aggregate(ctx context.Context) (*models.SectorSnapshot, error) {
	start := time.Now()
	snap, hit, err := cache.FetchAt(ctx, uc.cache, SectorCacheKey, uc.ttl, func(ctx context.Context) (*models.SectorSnapshot, time.Time, error) {
		if s, ok := uc.loadShared(ctx); ok {
			return s, s.FetchedAt, nil
		}
		s := uc.collect(ctx)
		uc.publish(ctx, s)
		uc.storeShared(ctx, s)
		return s, s.FetchedAt, nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate sectors: %w", err)
	}
	uc.metrics.RecordCacheLookup("sector", hit)
	if !hit {
		uc.metrics.RecordLatency("aggregate_sectors", time.Since(start).Seconds())
	}
	return snap, nil
}

func (uc *SectorAggregateUseCase) collect(ctx context.Context) *models.SectorSnapshot {
	rows := make([]models.SectorRow, len(uc.universe))

	var g errgroup.Group
	g.SetLimit(uc.workers)
	for i, m := range uc.universe {
		i, m := i, m
		g.Go(func() error {
			rows[i] = uc.member(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range rows {
		if r.Status == models.StatusOK {
			ok++
			uc.metrics.RecordSectorChange(r.Symbol, r.Change)
		}
	}
	snap := &models.SectorSnapshot{ID: uc.newID(), FetchedAt: uc.now(), Rows: rows}
	uc.log.Info("sector snapshot collected",
		logger.String("snapshot_id", snap.ID),
		logger.Int("members", len(rows)),
		logger.Int("ok", ok))
	return snap
}

// member never fails; the no_data row stands in for every problem.
func (uc *SectorAggregateUseCase) member(ctx context.Context, m config.SectorMember) (row models.SectorRow) {
	row = models.NewNoDataRow(m.Name, m.Symbol)
	defer func() {
		if r := recover(); r != nil {
			uc.metrics.RecordError("sector_panic")
			uc.log.Error("sector member panicked", logger.String("symbol", m.Symbol), logger.Any("panic", r))
			row = models.NewNoDataRow(m.Name, m.Symbol)
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
	defer cancel()

	bars, err := uc.provider.RecentBars(fctx, m.Symbol, uc.window)
	if err != nil {
		uc.metrics.RecordFetch("recent_bars", "failed")
		uc.log.Warn("sector fetch failed", logger.String("symbol", m.Symbol), logger.Error(err))
		return row
	}
	uc.metrics.RecordFetch("recent_bars", outcome(len(bars)))

	switch n := len(bars); {
	case n >= 2:
		last, prior := bars[n-1], bars[n-2]
		change, ok := percentChange(last.Close, prior.Close)
		if !ok {
			uc.log.Warn("invalid closes", logger.String("symbol", m.Symbol),
				logger.Float64("last", last.Close), logger.Float64("prior", prior.Close))
			return row
		}
		row.Change = change
		row.Status = models.StatusOK
		row.ReferenceDate = util.FormatDay(last.Date)
		row.PriorDate = util.FormatDay(prior.Date)
		row.Source = models.SourceBars
	case n == 1:
		prev, err := uc.provider.PreviousClose(fctx, m.Symbol)
		if err != nil {
			uc.log.Warn("previous close unavailable", logger.String("symbol", m.Symbol), logger.Error(err))
			return row
		}
		change, ok := percentChange(bars[0].Close, prev)
		if !ok {
			uc.log.Warn("invalid previous close", logger.String("symbol", m.Symbol), logger.Float64("previous_close", prev))
			return row
		}
		row.Change = change
		row.Status = models.StatusOK
		row.ReferenceDate = util.FormatDay(bars[0].Date)
		row.PriorDate = models.PriorDatePreviousClose
		row.Source = models.SourceSnapshot
	}
	return row
}

// loadShared reads a snapshot another instance collected within the TTL. A
// snapshot built for a different universe is ignored.
func (uc *SectorAggregateUseCase) loadShared(ctx context.Context) (*models.SectorSnapshot, bool) {
	if uc.shared == nil {
		return nil, false
	}
	var s models.SectorSnapshot
	if err := uc.shared.Get(ctx, SectorCacheKey, &s); err != nil {
		uc.metrics.RecordCacheLookup("sector_shared", false)
		return nil, false
	}
	if uc.now().Sub(s.FetchedAt) >= uc.ttl || !uc.matchesUniverse(&s) {
		uc.metrics.RecordCacheLookup("sector_shared", false)
		uc.log.Debug("shared snapshot rejected", logger.String("snapshot_id", s.ID), logger.Int("rows", len(s.Rows)))
		return nil, false
	}
	uc.metrics.RecordCacheLookup("sector_shared", true)
	return &s, true
}

func (uc *SectorAggregateUseCase) matchesUniverse(s *models.SectorSnapshot) bool {
	if len(s.Rows) != len(uc.universe) {
		return false
	}
	for i, m := range uc.universe {
		if s.Rows[i].Symbol != m.Symbol {
			return false
		}
	}
	return true
}

func (uc *SectorAggregateUseCase) storeShared(ctx context.Context, s *models.SectorSnapshot) {
	if uc.shared == nil {
		return
	}
	if err := uc.shared.Set(ctx, SectorCacheKey, s, uc.ttl); err != nil {
		uc.log.Debug("shared cache write failed", logger.String("key", SectorCacheKey), logger.Error(err))
	}
}

func (uc *SectorAggregateUseCase) publish(ctx context.Context, s *models.SectorSnapshot) {
	if uc.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishSnapshot(pctx, s); err != nil {
		uc.metrics.RecordError("publish_snapshot")
		uc.log.Warn("snapshot publish failed", logger.String("snapshot_id", s.ID), logger.Error(err))
	}
}

// percentChange returns (last-prior)/prior*100. Non-finite inputs or a
// non-positive prior are rejected.
func percentChange(last, prior float64) (float64, bool) {
	if !finite(last) || !finite(prior) || prior <= 0 {
		return 0, false
	}
	return (last - prior) / prior * 100, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
