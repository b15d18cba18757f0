package repository

import "errors"

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrNoPreviousClose is returned by providers that have no previous-close value for a symbol.
	ErrNoPreviousClose = errors.New("previous close unavailable")
)
