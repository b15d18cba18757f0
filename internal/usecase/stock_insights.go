package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/util"
)

// StockInsightsUseCase serves the news and holder panels.
type StockInsightsUseCase struct {
	provider    domrepo.MarketDataProvider
	translator  domrepo.Translator
	locale      string
	newsLimit   int
	holderLimit int
	metrics     domrepo.Metrics
	log         *logger.Logger
}

// NewStockInsightsUseCase wires the use case. translator may be nil, which leaves titles as published.
func NewStockInsightsUseCase(p domrepo.MarketDataProvider, tr domrepo.Translator, cfg *config.Config, m domrepo.Metrics, log *logger.Logger) *StockInsightsUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Translator.Enabled {
		tr = nil
	}
	return &StockInsightsUseCase{
		provider:    p,
		translator:  tr,
		locale:      cfg.Translator.TargetLocale,
		newsLimit:   cfg.Stocks.NewsLimit,
		holderLimit: cfg.Stocks.HolderLimit,
		metrics:     m,
		log:         log.With(logger.String("component", "insights")),
	}
}

// News returns the latest headlines with translated titles. Provider failure yields no items.
func (uc *StockInsightsUseCase) News(ctx context.Context, symbol string) (*models.NewsResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domrepo.ErrInvalidSymbol
	}
	out := &models.NewsResult{Symbol: symbol, Items: []models.NewsItem{}}

	items, err := uc.provider.RecentNews(ctx, symbol, uc.newsLimit)
	if err != nil {
		uc.metrics.RecordFetch("news", "failed")
		uc.log.Warn("news fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return out, nil
	}
	uc.metrics.RecordFetch("news", outcome(len(items)))
	if len(items) > uc.newsLimit {
		items = items[:uc.newsLimit]
	}

	if uc.translator != nil {
		var g errgroup.Group
		for i := range items {
			i := i
			g.Go(func() error {
				uc.translate(ctx, &items[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	out.Items = items
	return out, nil
}

func (uc *StockInsightsUseCase) translate(ctx context.Context, item *models.NewsItem) {
	if item.OriginalTitle == "" {
		item.OriginalTitle = item.Title
	}
	text, err := uc.translator.Translate(ctx, item.OriginalTitle, uc.locale)
	if err != nil || text == "" {
		uc.metrics.RecordError("translate")
		uc.log.Debug("translation failed, keeping original", logger.String("title", item.OriginalTitle), logger.Error(err))
		item.Title = item.OriginalTitle
		item.Translated = false
		return
	}
	item.Title = text
	item.Translated = true
}

// Holders returns the largest institutional holders.
func (uc *StockInsightsUseCase) Holders(ctx context.Context, symbol string) (*models.HoldersResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domrepo.ErrInvalidSymbol
	}
	out := &models.HoldersResult{Symbol: symbol}

	holders, err := uc.provider.InstitutionalHolders(ctx, symbol)
	if err != nil {
		uc.metrics.RecordFetch("holders", "failed")
		uc.log.Warn("holders fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return out, nil
	}
	uc.metrics.RecordFetch("holders", outcome(len(holders)))
	if len(holders) == 0 {
		return out, nil
	}
	if len(holders) > uc.holderLimit {
		holders = holders[:uc.holderLimit]
	}
	out.Available = true
	out.Holders = holders
	return out, nil
}

func outcome(n int) string {
	if n == 0 {
		return "empty"
	}
	return "found"
}
