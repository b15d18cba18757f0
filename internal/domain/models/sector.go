package models

import "time"

// RowStatus tells whether a sector row carries a computed change.
type RowStatus string

const (
	StatusOK     RowStatus = "ok"
	StatusNoData RowStatus = "no_data"
)

const (
	// DateNA fills row dates that could not be determined.
	DateNA = "N/A"
	// PriorDatePreviousClose marks a change computed against the provider's previous-close value.
	PriorDatePreviousClose = "previous_close"

	SourceBars     = "bars"
	SourceSnapshot = "snapshot"
)

// SectorRow is one universe member's daily move.
type SectorRow struct {
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	Change        float64   `json:"change"`
	Status        RowStatus `json:"status"`
	ReferenceDate string    `json:"reference_date"`
	PriorDate     string    `json:"prior_date"`
	Source        string    `json:"source,omitempty"`
}

// NewNoDataRow returns the row emitted when nothing could be computed.
func NewNoDataRow(name, symbol string) SectorRow {
	return SectorRow{
		Name:          name,
		Symbol:        symbol,
		Change:        0.0,
		Status:        StatusNoData,
		ReferenceDate: DateNA,
		PriorDate:     DateNA,
	}
}

// SectorSnapshot holds one row per universe member, in universe order.
type SectorSnapshot struct {
	ID        string      `json:"id"`
	FetchedAt time.Time   `json:"fetched_at"`
	Rows      []SectorRow `json:"rows"`
}

// HeatmapCell is a SectorRow plus display fields.
type HeatmapCell struct {
	SectorRow
	Magnitude   float64 `json:"magnitude"`
	DisplayText string  `json:"display_text"`
	ColorValue  float64 `json:"color_value"`
}

// HeatmapDataset is the display-ready form of a snapshot.
type HeatmapDataset struct {
	SnapshotID    string        `json:"snapshot_id"`
	FetchedAt     time.Time     `json:"fetched_at"`
	Cells         []HeatmapCell `json:"cells"`
	AverageChange float64       `json:"average_change"`
	ValidCount    int           `json:"valid_count"`
	LatestDate    string        `json:"latest_date"`
	PriorDate     string        `json:"prior_date"`
}
