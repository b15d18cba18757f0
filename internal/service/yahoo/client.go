package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"SectorPulse/internal/domain/models"
	drepo "SectorPulse/internal/domain/repository"
	"SectorPulse/pkg/config"
	xhttp "SectorPulse/pkg/http"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/util"
)

// Client implements MarketDataProvider against the public Yahoo Finance endpoints.
type Client struct {
	chartURL   string
	searchURL  string
	summaryURL string
	http       *xhttp.Client
	log        *logger.Logger
	now        func() time.Time
}

type Option func(*Client)

// WithClock replaces time.Now for the RecentBars window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a client from the provider section of the config.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		chartURL:   strings.TrimRight(cfg.Provider.ChartURL, "/"),
		searchURL:  cfg.Provider.SearchURL,
		summaryURL: strings.TrimRight(cfg.Provider.SummaryURL, "/"),
		log:        log.With(logger.String("component", "yahoo")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(
			xhttp.WithTimeout(cfg.Provider.Timeout),
			xhttp.WithHeader("User-Agent", cfg.Provider.UserAgent),
			xhttp.WithHeader("Accept", "application/json"),
		)
	}
	return c
}

var _ drepo.MarketDataProvider = (*Client)(nil)

// DailyBars returns adjusted daily bars for the period, oldest first.
func (c *Client) DailyBars(ctx context.Context, symbol string, period drepo.Period) ([]models.PriceBar, error) {
	res, err := c.chart(ctx, symbol, map[string][]string{
		"range":    {string(period)},
		"interval": {"1d"},
	})
	if err != nil || res == nil {
		return nil, err
	}
	return res.bars(), nil
}

// RecentBars returns daily bars from now-lookback to now.
func (c *Client) RecentBars(ctx context.Context, symbol string, lookback time.Duration) ([]models.PriceBar, error) {
	end := c.now()
	start := end.Add(-lookback)
	res, err := c.chart(ctx, symbol, map[string][]string{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {"1d"},
	})
	if err != nil || res == nil {
		return nil, err
	}
	return res.bars(), nil
}

// PreviousClose reads the prior session close from the chart metadata.
func (c *Client) PreviousClose(ctx context.Context, symbol string) (float64, error) {
	res, err := c.chart(ctx, symbol, map[string][]string{
		"range":    {"1d"},
		"interval": {"1d"},
	})
	if err != nil {
		return 0, err
	}
	if res == nil {
		return 0, drepo.ErrNoPreviousClose
	}
	for _, v := range []*float64{res.Meta.PreviousClose, res.Meta.ChartPreviousClose} {
		if v != nil && *v > 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			return *v, nil
		}
	}
	return 0, drepo.ErrNoPreviousClose
}

// RecentNews returns up to limit headlines, untranslated.
func (c *Client) RecentNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	var resp searchResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: c.searchURL,
		QueryParams: map[string][]string{
			"q":           {symbol},
			"newsCount":   {strconv.Itoa(limit)},
			"quotesCount": {"0"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo news %s: %w", symbol, err)
	}

	items := make([]models.NewsItem, 0, limit)
	for _, n := range resp.News {
		if len(items) >= limit {
			break
		}
		if strings.TrimSpace(n.Title) == "" {
			continue
		}
		items = append(items, models.NewsItem{
			Title:         n.Title,
			OriginalTitle: n.Title,
			Link:          n.Link,
			Publisher:     n.Publisher,
		})
	}
	return items, nil
}

// InstitutionalHolders returns the institution ownership list in provider order.
func (c *Client) InstitutionalHolders(ctx context.Context, symbol string) ([]models.Holder, error) {
	var resp summaryResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         c.summaryURL + "/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{"modules": {"institutionOwnership"}},
	}, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo holders %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo holders %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	list := resp.QuoteSummary.Result[0].InstitutionOwnership.OwnershipList
	out := make([]models.Holder, 0, len(list))
	for _, o := range list {
		out = append(out, models.Holder{
			Organization: o.Organization,
			Shares:       o.Position.Raw,
			ReportDate:   o.ReportDate.day(),
			PercentHeld:  o.PctHeld.Raw,
			Value:        o.Value.Raw,
		})
	}
	return out, nil
}

// chart fetches one chart result. A nil result with nil error means the symbol is unknown.
func (c *Client) chart(ctx context.Context, symbol string, params map[string][]string) (*chartResult, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:         c.chartURL + "/" + url.PathEscape(symbol),
		QueryParams: params,
	}, &resp)
	if err != nil {
		if isNotFound(err) {
			c.log.Debug("symbol not found", logger.String("symbol", symbol))
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return &resp.Chart.Result[0], nil
}

func isNotFound(err error) bool {
	var se *xhttp.StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// bars converts the columnar payload into adjusted bars. Rows with a missing
// close are skipped; bars are keyed by exchange-local day, last one wins.
func (r *chartResult) bars() []models.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}
	loc := time.FixedZone(r.Meta.ExchangeTimezoneName, r.Meta.GMTOffset)

	byDay := make(map[string]models.PriceBar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePx := at(q.Close, i)
		if math.IsNaN(closePx) {
			continue
		}
		factor := 1.0
		if a := at(adj, i); !math.IsNaN(a) && closePx != 0 {
			factor = a / closePx
		}

		local := time.Unix(ts, 0).In(loc)
		y, m, d := local.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		bar := models.PriceBar{
			Date:   day,
			Open:   orValue(at(q.Open, i), closePx) * factor,
			High:   orValue(at(q.High, i), closePx) * factor,
			Low:    orValue(at(q.Low, i), closePx) * factor,
			Close:  closePx * factor,
			Volume: orValue(at(q.Volume, i), 0),
		}
		byDay[util.FormatDay(day)] = bar
	}

	out := make([]models.PriceBar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	return *vals[i]
}

func orValue(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return v
}
