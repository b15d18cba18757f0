package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	drepo "SectorPulse/internal/domain/repository"
	"SectorPulse/pkg/config"
	xhttp "SectorPulse/pkg/http"
)

// ErrEmptyTranslation is returned when the endpoint answers without any text.
var ErrEmptyTranslation = errors.New("empty translation")

// Google calls the public translate_a/single endpoint (client=gtx).
type Google struct {
	url          string
	sourceLocale string
	http         *xhttp.Client
}

func NewGoogle(cfg *config.Config) *Google {
	return &Google{
		url:          cfg.Translator.URL,
		sourceLocale: cfg.Translator.SourceLocale,
		http:         xhttp.NewClient(xhttp.WithTimeout(cfg.Translator.Timeout)),
	}
}

var _ drepo.Translator = (*Google)(nil)

func (g *Google) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	source := g.sourceLocale
	if source == "" {
		source = "auto"
	}

	var raw []byte
	err := g.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: g.url,
		QueryParams: map[string][]string{
			"client": {"gtx"},
			"sl":     {source},
			"tl":     {targetLocale},
			"dt":     {"t"},
			"q":      {text},
		},
	}, &raw)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return parseSentences(raw)
}

// parseSentences joins the translated segments of a response shaped like
// [[["translated","original",...],...],null,"en",...].
func parseSentences(raw []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return "", fmt.Errorf("translate: decode: %w", err)
	}
	if len(top) == 0 {
		return "", ErrEmptyTranslation
	}
	var segments [][]interface{}
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("translate: decode segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return b.String(), nil
}
