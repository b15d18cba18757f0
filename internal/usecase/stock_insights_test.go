package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"SectorPulse/internal/domain/models"
	domrepo "SectorPulse/internal/domain/repository"
)

type upperTranslator struct {
	failOn string
}

func (u upperTranslator) Translate(_ context.Context, text, locale string) (string, error) {
	if locale != "zh-TW" {
		return "", errors.New("unexpected locale " + locale)
	}
	if u.failOn != "" && strings.Contains(text, u.failOn) {
		return "", errors.New("translate quota")
	}
	return "[zh] " + text, nil
}

func newsItems(titles ...string) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(titles))
	for _, title := range titles {
		out = append(out, models.NewsItem{Title: title, OriginalTitle: title, Link: "https://news/" + title})
	}
	return out
}

func TestNewsTranslatesWithFallback(t *testing.T) {
	p := newFakeProvider()
	p.news = newsItems("alpha", "beta", "gamma", "delta")
	cfg := testConfig()
	cfg.Translator.Enabled = true

	uc := NewStockInsightsUseCase(p, upperTranslator{failOn: "beta"}, cfg, nopMetrics, nil)
	res, err := uc.News(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("News: %v", err)
	}
	if res.Symbol != "AAPL" || len(res.Items) != 3 {
		t.Fatalf("expected top 3, got %+v", res)
	}
	if res.Items[0].Title != "[zh] alpha" || !res.Items[0].Translated {
		t.Fatalf("item 0 %+v", res.Items[0])
	}
	if res.Items[1].Title != "beta" || res.Items[1].Translated {
		t.Fatalf("failed translation should keep the original: %+v", res.Items[1])
	}
	if res.Items[2].OriginalTitle != "gamma" || res.Items[2].Link != "https://news/gamma" {
		t.Fatalf("item 2 %+v", res.Items[2])
	}
}

func TestNewsDisabledTranslator(t *testing.T) {
	p := newFakeProvider()
	p.news = newsItems("alpha")
	cfg := testConfig()
	cfg.Translator.Enabled = false
	res, _ := NewStockInsightsUseCase(p, upperTranslator{}, cfg, nopMetrics, nil).News(context.Background(), "AAPL")
	if res.Items[0].Title != "alpha" || res.Items[0].Translated {
		t.Fatalf("unexpected %+v", res.Items[0])
	}
}

func TestNewsProviderFailure(t *testing.T) {
	p := newFakeProvider()
	p.fail["AAPL"] = true
	res, err := NewStockInsightsUseCase(p, nil, testConfig(), nopMetrics, nil).News(context.Background(), "AAPL")
	if err != nil || res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("expected empty list, got %+v %v", res, err)
	}
	if _, err := NewStockInsightsUseCase(p, nil, testConfig(), nopMetrics, nil).News(context.Background(), ""); !errors.Is(err, domrepo.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestHolders(t *testing.T) {
	p := newFakeProvider()
	for i := 0; i < 12; i++ {
		p.holders = append(p.holders, models.Holder{Organization: string(rune('A' + i)), Shares: float64(1000 - i)})
	}
	uc := NewStockInsightsUseCase(p, nil, testConfig(), nopMetrics, nil)

	res, err := uc.Holders(context.Background(), "msft")
	if err != nil || !res.Available || len(res.Holders) != 10 || res.Holders[0].Organization != "A" {
		t.Fatalf("unexpected %+v %v", res, err)
	}

	p.holders = nil
	if res, _ := uc.Holders(context.Background(), "MSFT"); res.Available {
		t.Fatalf("empty holders should be unavailable")
	}
	p.fail["MSFT"] = true
	if res, err := uc.Holders(context.Background(), "MSFT"); err != nil || res.Available {
		t.Fatalf("failure should be unavailable, got %+v %v", res, err)
	}
}
