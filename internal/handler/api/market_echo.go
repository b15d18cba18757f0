package api

import (
	"context"
	"errors"
	"time"

	models "SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/internal/service/metrics"
	"SectorPulse/internal/service/ratelimit"
	"SectorPulse/internal/services/heatmap"
	"SectorPulse/pkg/config"
	xhttp "SectorPulse/pkg/http"
	xlogger "SectorPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type Analyzer interface {
	Analyze(ctx context.Context, symbol string, period domrepo.Period) (*models.StockAnalysis, error)
}

type Insights interface {
	News(ctx context.Context, symbol string) (*models.NewsResult, error)
	Holders(ctx context.Context, symbol string) (*models.HoldersResult, error)
}

type SectorSource interface {
	Aggregate(ctx context.Context) (*models.SectorSnapshot, error)
}

// MarketEchoHandler serves the stock and sector endpoints.
type MarketEchoHandler struct {
	logger   *xlogger.Logger
	analyzer Analyzer
	insights Insights
	sectors  SectorSource
	limiter  *ratelimit.Limiter
	capacity float64
	refill   float64
	popular  []string
}

func NewMarketEchoHandler(logger *xlogger.Logger, cfg *config.Config, a Analyzer, in Insights, s SectorSource, limiter *ratelimit.Limiter) *MarketEchoHandler {
	metrics.Register()
	return &MarketEchoHandler{
		logger:   logger,
		analyzer: a,
		insights: in,
		sectors:  s,
		limiter:  limiter,
		capacity: cfg.Server.RateLimit.Capacity,
		refill:   cfg.Server.RateLimit.RefillPerSec,
		popular:  append([]string(nil), cfg.Stocks.Popular...),
	}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/symbols", h.Symbols)
	g.GET("/analysis", h.Analysis)
	g.GET("/news", h.News)
	g.GET("/holders", h.Holders)
	g.GET("/sectors", h.Sectors)
	g.GET("/heatmap", h.Heatmap)
}

// rateLimit applies one token bucket per client IP.
func (h *MarketEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP(), h.capacity, h.refill) {
			metrics.RateLimited.WithLabelValues(c.Path()).Inc()
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

func (h *MarketEchoHandler) Symbols(c echo.Context) error {
	return xhttp.ListResponse(c, h.popular, int64(len(h.popular)))
}

func (h *MarketEchoHandler) Analysis(c echo.Context) error {
	defer metrics.ObserveSince("analysis", time.Now())
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.CountError("analysis", "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	period, err := domrepo.ParsePeriod(req.Period)
	if err != nil {
		return h.fail(c, "analysis", err)
	}
	res, err := h.analyzer.Analyze(c.Request().Context(), req.Symbol, period)
	if err != nil {
		return h.fail(c, "analysis", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) News(c echo.Context) error {
	defer metrics.ObserveSince("news", time.Now())
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.CountError("news", "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.insights.News(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "news", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Holders(c echo.Context) error {
	defer metrics.ObserveSince("holders", time.Now())
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.CountError("holders", "validation")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.insights.Holders(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "holders", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Sectors(c echo.Context) error {
	defer metrics.ObserveSince("sectors", time.Now())
	snap, err := h.sectors.Aggregate(c.Request().Context())
	if err != nil {
		return h.fail(c, "sectors", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *MarketEchoHandler) Heatmap(c echo.Context) error {
	defer metrics.ObserveSince("heatmap", time.Now())
	snap, err := h.sectors.Aggregate(c.Request().Context())
	if err != nil {
		return h.fail(c, "heatmap", err)
	}
	return xhttp.SuccessResponse(c, heatmap.Build(snap))
}

// fail maps use case errors onto the response envelope.
func (h *MarketEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	switch {
	case errors.Is(err, domrepo.ErrInvalidPeriod):
		metrics.CountError(endpoint, "bad_request")
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("period", err.Error()).WithError(err))
	case errors.Is(err, domrepo.ErrInvalidSymbol):
		metrics.CountError(endpoint, "bad_request")
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbol", err.Error()).WithError(err))
	default:
		metrics.CountError(endpoint, "internal")
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("request failed").WithError(err))
	}
}
