package yahoo

import (
	"time"

	"SectorPulse/pkg/util"
)

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string   `json:"symbol"`
		ExchangeTimezoneName string   `json:"exchangeTimezoneName"`
		GMTOffset            int      `json:"gmtoffset"`
		RegularMarketPrice   *float64 `json:"regularMarketPrice"`
		PreviousClose        *float64 `json:"previousClose"`
		ChartPreviousClose   *float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type searchResponse struct {
	News []struct {
		Title     string `json:"title"`
		Link      string `json:"link"`
		Publisher string `json:"publisher"`
	} `json:"news"`
}

type rawValue struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

type rawDate struct {
	Raw int64  `json:"raw"`
	Fmt string `json:"fmt"`
}

func (d rawDate) day() string {
	if d.Fmt != "" {
		return d.Fmt
	}
	if d.Raw == 0 {
		return ""
	}
	return util.FormatDay(time.Unix(d.Raw, 0).UTC())
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			InstitutionOwnership struct {
				OwnershipList []struct {
					Organization string   `json:"organization"`
					ReportDate   rawDate  `json:"reportDate"`
					PctHeld      rawValue `json:"pctHeld"`
					Position     rawValue `json:"position"`
					Value        rawValue `json:"value"`
				} `json:"ownershipList"`
			} `json:"institutionOwnership"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}
