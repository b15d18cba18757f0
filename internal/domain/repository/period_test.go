package repository

import (
	"errors"
	"testing"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want Period
	}{
		{"", Period6Mo},
		{"1mo", Period1Mo},
		{" 1Y ", Period1Y},
		{"5y", Period5Y},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePeriod(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParsePeriodRejectsUnknown(t *testing.T) {
	for _, in := range []string{"7d", "10y", "max", "1m"} {
		if _, err := ParsePeriod(in); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("ParsePeriod(%q) err = %v, want ErrInvalidPeriod", in, err)
		}
	}
}

func TestPeriodsAreValid(t *testing.T) {
	for _, p := range Periods {
		if !IsValidPeriod(p) {
			t.Fatalf("%q should be valid", p)
		}
	}
}
