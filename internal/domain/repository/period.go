package repository

import (
	"fmt"
	"strings"
)

// Period is a supported history range.
type Period string

const (
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
)

// Periods lists the supported periods, shortest first.
var Periods = []Period{Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y, Period5Y}

// IsValidPeriod returns true if p is a supported period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1Mo, Period3Mo, Period6Mo, Period1Y, Period2Y, Period5Y:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default analysis period.
func DefaultPeriod() Period { return Period6Mo }

// ParsePeriod converts raw input to a Period. Empty input yields the default;
// anything unsupported is rejected rather than silently defaulted.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod(), nil
	}
	p := Period(s)
	if !IsValidPeriod(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}
