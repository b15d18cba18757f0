package models

// Requests for market HTTP endpoints.

type AnalysisRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
	// Period is normalized by repository.ParsePeriod, so case and padding are accepted.
	Period string `query:"period" json:"period" default:"6mo" validate:"max=8"`
}

type SymbolRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
}
