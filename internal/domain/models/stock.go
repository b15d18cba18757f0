package models

// StockAnalysis is the single-symbol view: history, indicators and trend.
type StockAnalysis struct {
	Symbol        string        `json:"symbol"`
	Period        string        `json:"period"`
	Available     bool          `json:"available"`
	Reason        string        `json:"reason,omitempty"`
	Bars          []PriceBar    `json:"bars,omitempty"`
	Indicators    *IndicatorSet `json:"indicators,omitempty"`
	LastClose     float64       `json:"last_close,omitempty"`
	ChangePercent *float64      `json:"change_percent,omitempty"`
	LatestRSI     *float64      `json:"latest_rsi,omitempty"`
	Trend         TrendState    `json:"trend,omitempty"`
}

// NewsItem is one headline. Title is translated when Translated is true.
type NewsItem struct {
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Link          string `json:"link"`
	Publisher     string `json:"publisher,omitempty"`
	Translated    bool   `json:"translated"`
}

// Holder is an institutional position.
type Holder struct {
	Organization string  `json:"organization"`
	Shares       float64 `json:"shares"`
	ReportDate   string  `json:"report_date"`
	PercentHeld  float64 `json:"percent_held"`
	Value        float64 `json:"value"`
}

type NewsResult struct {
	Symbol string     `json:"symbol"`
	Items  []NewsItem `json:"items"`
}

type HoldersResult struct {
	Symbol    string   `json:"symbol"`
	Available bool     `json:"available"`
	Holders   []Holder `json:"holders,omitempty"`
}
