package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	pkgcache "SectorPulse/pkg/cache"
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/metrics"
)

var errUpstream = errors.New("upstream unavailable")

type fakeProvider struct {
	mu        sync.Mutex
	daily     map[string][]models.PriceBar
	recent    map[string][]models.PriceBar
	prevClose map[string]float64
	news      []models.NewsItem
	holders   []models.Holder
	fail      map[string]bool
	panics    map[string]bool
	delay     time.Duration

	dailyCalls  int32
	recentCalls int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		daily:     map[string][]models.PriceBar{},
		recent:    map[string][]models.PriceBar{},
		prevClose: map[string]float64{},
		fail:      map[string]bool{},
		panics:    map[string]bool{},
	}
}

func (f *fakeProvider) DailyBars(ctx context.Context, symbol string, _ domrepo.Period) ([]models.PriceBar, error) {
	atomic.AddInt32(&f.dailyCalls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[symbol] {
		return nil, errUpstream
	}
	return f.daily[symbol], nil
}

func (f *fakeProvider) RecentBars(ctx context.Context, symbol string, _ time.Duration) ([]models.PriceBar, error) {
	atomic.AddInt32(&f.recentCalls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	fail, panics, bars := f.fail[symbol], f.panics[symbol], f.recent[symbol]
	f.mu.Unlock()
	if panics {
		panic("provider exploded for " + symbol)
	}
	if fail {
		return nil, errUpstream
	}
	return bars, nil
}

func (f *fakeProvider) PreviousClose(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.prevClose[symbol]
	if !ok {
		return 0, domrepo.ErrNoPreviousClose
	}
	return v, nil
}

func (f *fakeProvider) RecentNews(_ context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if f.fail[symbol] {
		return nil, errUpstream
	}
	out := append([]models.NewsItem(nil), f.news...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProvider) InstitutionalHolders(_ context.Context, symbol string) ([]models.Holder, error) {
	if f.fail[symbol] {
		return nil, errUpstream
	}
	return f.holders, nil
}

// memShared is a map-backed stand-in for the Redis tier; values round-trip through JSON like RedisCache.
type memShared struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemShared() *memShared {
	return &memShared{m: map[string][]byte{}}
}

func (s *memShared) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = b
	return nil
}

func (s *memShared) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.m[key]
	if !ok {
		return pkgcache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (s *memShared) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []*models.SectorSnapshot
	err   error
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, s *models.SectorSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, s)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snaps)
}

func testConfig() *config.Config {
	return config.Default()
}

var nopMetrics domrepo.Metrics = metrics.Nop{}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func bar(date string, closePx float64) models.PriceBar {
	return models.PriceBar{Date: day(date), Open: closePx, High: closePx, Low: closePx, Close: closePx}
}

func rampBars(n int, from, step float64) []models.PriceBar {
	start := day("2024-01-01")
	out := make([]models.PriceBar, n)
	for i := range out {
		c := from + step*float64(i)
		out[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return out
}
