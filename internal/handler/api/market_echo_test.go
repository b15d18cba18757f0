package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	models "SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/internal/service/ratelimit"
	"SectorPulse/pkg/config"
	xlogger "SectorPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubAnalyzer struct {
	gotSymbol string
	gotPeriod domrepo.Period
	err       error
}

func (s *stubAnalyzer) Analyze(_ context.Context, symbol string, period domrepo.Period) (*models.StockAnalysis, error) {
	s.gotSymbol, s.gotPeriod = symbol, period
	if s.err != nil {
		return nil, s.err
	}
	return &models.StockAnalysis{Symbol: symbol, Period: string(period), Available: true, Trend: models.TrendBullish}, nil
}

type stubInsights struct{}

func (stubInsights) News(_ context.Context, symbol string) (*models.NewsResult, error) {
	return &models.NewsResult{Symbol: symbol, Items: []models.NewsItem{{Title: "t", Link: "l"}}}, nil
}

func (stubInsights) Holders(_ context.Context, symbol string) (*models.HoldersResult, error) {
	return &models.HoldersResult{Symbol: symbol}, nil
}

type stubSectors struct{ err error }

func (s stubSectors) Aggregate(context.Context) (*models.SectorSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.SectorSnapshot{ID: "s1", Rows: []models.SectorRow{
		{Name: "Technology", Symbol: "XLK", Change: 1.5, Status: models.StatusOK, ReferenceDate: "2024-10-10", PriorDate: "2024-10-09"},
		models.NewNoDataRow("Energy", "XLE"),
	}}, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEcho(a Analyzer, s SectorSource, limiter *ratelimit.Limiter) *echo.Echo {
	cfg := config.Default()
	cfg.Server.RateLimit.Capacity = 2
	cfg.Server.RateLimit.RefillPerSec = 0.001
	e := echo.New()
	NewMarketEchoHandler(xlogger.Nop(), cfg, a, stubInsights{}, s, limiter).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v (%s)", target, err, rec.Body.String())
	}
	return rec, env
}

func TestAnalysisDefaultsPeriod(t *testing.T) {
	a := &stubAnalyzer{}
	e := newTestEcho(a, stubSectors{}, nil)
	rec, env := do(t, e, "/api/analysis?symbol=AAPL")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if a.gotSymbol != "AAPL" || a.gotPeriod != domrepo.Period6Mo {
		t.Fatalf("unexpected call %s %s", a.gotSymbol, a.gotPeriod)
	}
}

func TestAnalysisNormalizesPeriod(t *testing.T) {
	a := &stubAnalyzer{}
	e := newTestEcho(a, stubSectors{}, nil)
	rec, _ := do(t, e, "/api/analysis?symbol=AAPL&period=%201Y%20")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if a.gotPeriod != domrepo.Period1Y {
		t.Fatalf("expected 1y, got %q", a.gotPeriod)
	}
}

func TestAnalysisValidation(t *testing.T) {
	e := newTestEcho(&stubAnalyzer{}, stubSectors{}, nil)
	rec, _ := do(t, e, "/api/analysis?symbol=AAPL&period=10y")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad period, got %d", rec.Code)
	}
	rec, _ = do(t, e, "/api/analysis")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing symbol, got %d", rec.Code)
	}
}

func TestAnalysisMapsDomainErrors(t *testing.T) {
	e := newTestEcho(&stubAnalyzer{err: domrepo.ErrInvalidSymbol}, stubSectors{}, nil)
	if rec, _ := do(t, e, "/api/analysis?symbol=AAPL"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	e = newTestEcho(&stubAnalyzer{err: errors.New("boom")}, stubSectors{}, nil)
	if rec, _ := do(t, e, "/api/analysis?symbol=AAPL"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHeatmapEndpoint(t *testing.T) {
	e := newTestEcho(&stubAnalyzer{}, stubSectors{}, nil)
	rec, env := do(t, e, "/api/heatmap")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var ds models.HeatmapDataset
	if err := json.Unmarshal(env.Data, &ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if ds.SnapshotID != "s1" || len(ds.Cells) != 2 || ds.ValidCount != 1 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
	if ds.Cells[0].DisplayText != "+1.50%" || ds.Cells[1].DisplayText != "no data" {
		t.Fatalf("unexpected cells %+v", ds.Cells)
	}
}

func TestSectorsCancelled(t *testing.T) {
	e := newTestEcho(&stubAnalyzer{}, stubSectors{err: context.DeadlineExceeded}, nil)
	if rec, _ := do(t, e, "/api/sectors"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSymbolsAndRateLimit(t *testing.T) {
	now := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	e := newTestEcho(&stubAnalyzer{}, stubSectors{}, ratelimit.New(ratelimit.WithClock(func() time.Time { return now })))

	rec, env := do(t, e, "/api/symbols")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var list struct {
		Rows  []string `json:"rows"`
		Total int64    `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil || list.Total != 15 || list.Rows[0] != "AAPL" {
		t.Fatalf("unexpected list %+v %v", list, err)
	}

	_, _ = do(t, e, "/api/symbols")
	if rec, _ := do(t, e, "/api/symbols"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", rec.Code)
	}
}
