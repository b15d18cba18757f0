package usecase

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/internal/service/cache"
	pkgcache "SectorPulse/pkg/cache"
	"SectorPulse/pkg/config"
)

func newAggregator(p *fakeProvider, pub *recordingPublisher, universe []config.SectorMember, opts ...cache.Option) *SectorAggregateUseCase {
	return newSharedAggregator(p, nil, pub, universe, opts...)
}

func newSharedAggregator(p *fakeProvider, shared *memShared, pub *recordingPublisher, universe []config.SectorMember, opts ...cache.Option) *SectorAggregateUseCase {
	cfg := testConfig()
	cfg.Sector.Universe = universe
	cfg.Sector.Workers = 2
	cfg.Sector.FetchTimeout = time.Second
	var publisher domrepo.SnapshotPublisher
	if pub != nil {
		publisher = pub
	}
	var sharedTier pkgcache.Service
	if shared != nil {
		sharedTier = shared
	}
	uc := NewSectorAggregateUseCase(p, cache.NewTTLCache(opts...), sharedTier, publisher, cfg, nopMetrics, nil)
	uc.newID = func() string { return "snap-test" }
	return uc
}

var threeMembers = []config.SectorMember{
	{Symbol: "AAA", Name: "Alpha"},
	{Symbol: "BBB", Name: "Beta"},
	{Symbol: "CCC", Name: "Gamma"},
}

func TestAggregateThreeSymbolScenario(t *testing.T) {
	p := newFakeProvider()
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-09", 100), bar("2024-10-10", 105)}
	p.recent["CCC"] = []models.PriceBar{bar("2024-10-10", 50)}
	p.prevClose["CCC"] = 49
	pub := &recordingPublisher{}

	snap, err := newAggregator(p, pub, threeMembers).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.ID != "snap-test" || len(snap.Rows) != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	a, b, c := snap.Rows[0], snap.Rows[1], snap.Rows[2]
	if a.Symbol != "AAA" || a.Status != models.StatusOK || math.Abs(a.Change-5.0) > 1e-9 {
		t.Fatalf("row A %+v", a)
	}
	if a.ReferenceDate != "2024-10-10" || a.PriorDate != "2024-10-09" || a.Source != models.SourceBars {
		t.Fatalf("row A dates %+v", a)
	}
	if b.Symbol != "BBB" || b.Status != models.StatusNoData || b.Change != 0 || b.ReferenceDate != models.DateNA {
		t.Fatalf("row B %+v", b)
	}
	if c.Symbol != "CCC" || c.Status != models.StatusOK || math.Abs(c.Change-2.0408163) > 1e-6 {
		t.Fatalf("row C %+v", c)
	}
	if c.PriorDate != models.PriorDatePreviousClose || c.Source != models.SourceSnapshot || c.ReferenceDate != "2024-10-10" {
		t.Fatalf("row C markers %+v", c)
	}
	if pub.count() != 1 {
		t.Fatalf("fresh snapshot should be published once, got %d", pub.count())
	}
}

func TestAggregateSingleBarWithoutPreviousClose(t *testing.T) {
	p := newFakeProvider()
	p.recent["CCC"] = []models.PriceBar{bar("2024-10-10", 50)}
	snap, _ := newAggregator(p, nil, threeMembers[2:]).Aggregate(context.Background())
	if snap.Rows[0].Status != models.StatusNoData {
		t.Fatalf("expected no_data, got %+v", snap.Rows[0])
	}

	p.prevClose["CCC"] = math.NaN()
	snap, _ = newAggregator(p, nil, threeMembers[2:]).Aggregate(context.Background())
	if snap.Rows[0].Status != models.StatusNoData {
		t.Fatalf("invalid previous close should give no_data, got %+v", snap.Rows[0])
	}
}

func TestAggregateTotalFailureKeepsCardinality(t *testing.T) {
	p := newFakeProvider()
	for _, m := range config.DefaultUniverse {
		p.fail[m.Symbol] = true
	}
	p.fail["XLK"] = false
	p.panics["XLK"] = true

	snap, err := newAggregator(p, nil, config.DefaultUniverse).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(snap.Rows) != len(config.DefaultUniverse) {
		t.Fatalf("expected %d rows, got %d", len(config.DefaultUniverse), len(snap.Rows))
	}
	for i, row := range snap.Rows {
		want := config.DefaultUniverse[i]
		if row.Symbol != want.Symbol || row.Name != want.Name {
			t.Fatalf("row %d out of universe order: %+v", i, row)
		}
		if row.Status != models.StatusNoData || row.Change != 0 {
			t.Fatalf("row %d should be no_data: %+v", i, row)
		}
	}
}

func TestAggregateIsolatesFailures(t *testing.T) {
	p := newFakeProvider()
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-09", 100), bar("2024-10-10", 99)}
	p.panics["BBB"] = true
	p.recent["CCC"] = []models.PriceBar{bar("2024-10-09", 0), bar("2024-10-10", 10)}

	snap, _ := newAggregator(p, nil, threeMembers).Aggregate(context.Background())
	if snap.Rows[0].Status != models.StatusOK || math.Abs(snap.Rows[0].Change+1) > 1e-9 {
		t.Fatalf("row A %+v", snap.Rows[0])
	}
	if snap.Rows[1].Status != models.StatusNoData {
		t.Fatalf("panicking member should be no_data: %+v", snap.Rows[1])
	}
	if snap.Rows[2].Status != models.StatusNoData {
		t.Fatalf("zero prior close should be no_data: %+v", snap.Rows[2])
	}
}

func TestAggregateCachesSnapshot(t *testing.T) {
	clk := &testClock{now: day("2024-10-10")}
	p := newFakeProvider()
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-09", 100), bar("2024-10-10", 105)}
	pub := &recordingPublisher{err: errors.New("broker down")}
	uc := newAggregator(p, pub, threeMembers[:1], cache.WithClock(clk.Now))

	first, err := uc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("publish failure must not fail the call: %v", err)
	}
	clk.Advance(4 * time.Minute)
	second, _ := uc.Aggregate(context.Background())
	if first != second || atomic.LoadInt32(&p.recentCalls) != 1 {
		t.Fatalf("expected cached snapshot, calls=%d", p.recentCalls)
	}
	if pub.count() != 1 {
		t.Fatalf("cached snapshot must not be republished, got %d", pub.count())
	}

	clk.Advance(time.Minute)
	if _, err := uc.Aggregate(context.Background()); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if atomic.LoadInt32(&p.recentCalls) != 2 || pub.count() != 2 {
		t.Fatalf("expected refresh at ttl, calls=%d publishes=%d", p.recentCalls, pub.count())
	}
}

func TestAggregateSharedTier(t *testing.T) {
	shared := newMemShared()
	p := newFakeProvider()
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-09", 100), bar("2024-10-10", 105)}
	pub := &recordingPublisher{}

	first, err := newSharedAggregator(p, shared, pub, threeMembers[:1]).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	// a second instance with a cold local cache reuses the shared snapshot
	second, err := newSharedAggregator(p, shared, pub, threeMembers[:1]).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if second.ID != first.ID || second.Rows[0].Change != first.Rows[0].Change {
		t.Fatalf("expected shared snapshot, got %+v", second)
	}
	if atomic.LoadInt32(&p.recentCalls) != 1 || pub.count() != 1 {
		t.Fatalf("shared snapshot must not be recollected or republished: calls=%d publishes=%d", p.recentCalls, pub.count())
	}
}

func TestAggregateIgnoresSharedSnapshotForOtherUniverse(t *testing.T) {
	shared := newMemShared()
	p := newFakeProvider()
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-09", 100), bar("2024-10-10", 105)}

	if _, err := newSharedAggregator(p, shared, nil, threeMembers[:1]).Aggregate(context.Background()); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	// an instance configured with a wider universe must not serve the narrow snapshot
	snap, err := newSharedAggregator(p, shared, nil, threeMembers).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(snap.Rows) != len(threeMembers) {
		t.Fatalf("got %d rows for a %d-member universe", len(snap.Rows), len(threeMembers))
	}
	for i, m := range threeMembers {
		if snap.Rows[i].Symbol != m.Symbol {
			t.Fatalf("row %d: got %s, want %s", i, snap.Rows[i].Symbol, m.Symbol)
		}
	}
	if got := atomic.LoadInt32(&p.recentCalls); got != 4 {
		t.Fatalf("expected the wide universe to be collected, got %d calls", got)
	}

	reordered := []config.SectorMember{threeMembers[2], threeMembers[1], threeMembers[0]}
	snap, _ = newSharedAggregator(p, shared, nil, reordered).Aggregate(context.Background())
	if snap.Rows[0].Symbol != "CCC" {
		t.Fatalf("reordered universe served a stale order: %+v", snap.Rows)
	}
}

func TestAggregateSharedSnapshotKeepsItsAge(t *testing.T) {
	clk := &testClock{now: day("2024-10-10")}
	shared := newMemShared()
	p := newFakeProvider()
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-09", 100), bar("2024-10-10", 105)}

	first := newSharedAggregator(p, shared, nil, threeMembers[:1], cache.WithClock(clk.Now))
	first.now = clk.Now
	if _, err := first.Aggregate(context.Background()); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	clk.Advance(4 * time.Minute)
	p.recent["AAA"] = []models.PriceBar{bar("2024-10-10", 100), bar("2024-10-11", 110)}
	second := newSharedAggregator(p, shared, nil, threeMembers[:1], cache.WithClock(clk.Now))
	second.now = clk.Now
	snap, _ := second.Aggregate(context.Background())
	if math.Abs(snap.Rows[0].Change-5) > 1e-9 || atomic.LoadInt32(&p.recentCalls) != 1 {
		t.Fatalf("expected the shared snapshot, change=%v calls=%d", snap.Rows[0].Change, p.recentCalls)
	}

	// ttl counts from the original collection, not from the local copy
	clk.Advance(time.Minute)
	snap, _ = second.Aggregate(context.Background())
	if math.Abs(snap.Rows[0].Change-10) > 1e-9 || atomic.LoadInt32(&p.recentCalls) != 2 {
		t.Fatalf("expected a fresh collection, change=%v calls=%d", snap.Rows[0].Change, p.recentCalls)
	}
}

func TestAggregateCancelledContext(t *testing.T) {
	p := newFakeProvider()
	p.delay = 200 * time.Millisecond
	uc := newAggregator(p, nil, threeMembers)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uc.Aggregate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPercentChange(t *testing.T) {
	if v, ok := percentChange(105, 100); !ok || math.Abs(v-5) > 1e-12 {
		t.Fatalf("got %v %v", v, ok)
	}
	for _, tc := range [][2]float64{{1, 0}, {1, -3}, {math.NaN(), 1}, {1, math.Inf(1)}} {
		if _, ok := percentChange(tc[0], tc[1]); ok {
			t.Fatalf("expected rejection for %v", tc)
		}
	}
}
