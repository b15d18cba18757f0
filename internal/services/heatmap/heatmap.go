package heatmap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"SectorPulse/internal/domain/models"
)

const (
	// MinMagnitude is the tile weight given to near-zero moves so they stay visible.
	MinMagnitude = 0.5
	flatEpsilon  = 0.01
	// ColorRange bounds ColorValue on both sides.
	ColorRange = 4.0

	noDataText = "no data"
)

// Build derives display fields from a snapshot. The snapshot is not modified.
func Build(snapshot *models.SectorSnapshot) models.HeatmapDataset {
	ds := models.HeatmapDataset{
		LatestDate: models.DateNA,
		PriorDate:  models.DateNA,
	}
	if snapshot == nil {
		return ds
	}
	ds.SnapshotID = snapshot.ID
	ds.FetchedAt = snapshot.FetchedAt
	ds.Cells = make([]models.HeatmapCell, 0, len(snapshot.Rows))

	changes := make([]float64, 0, len(snapshot.Rows))
	latest, prior := "", ""
	for _, row := range snapshot.Rows {
		ds.Cells = append(ds.Cells, cell(row))
		changes = append(changes, row.Change)

		if row.Status != models.StatusOK {
			continue
		}
		ds.ValidCount++
		// YYYY-MM-DD compares correctly as a string
		if isDate(row.ReferenceDate) && row.ReferenceDate > latest {
			latest = row.ReferenceDate
		}
		if isDate(row.PriorDate) && row.PriorDate > prior {
			prior = row.PriorDate
		}
	}

	if len(changes) > 0 {
		ds.AverageChange = stat.Mean(changes, nil)
	}
	if latest != "" {
		ds.LatestDate = latest
	}
	if prior != "" {
		ds.PriorDate = prior
	}
	return ds
}

func cell(row models.SectorRow) models.HeatmapCell {
	c := models.HeatmapCell{
		SectorRow:   row,
		Magnitude:   math.Abs(row.Change),
		DisplayText: noDataText,
		ColorValue:  math.Max(-ColorRange, math.Min(ColorRange, row.Change)),
	}
	if c.Magnitude <= flatEpsilon {
		c.Magnitude = MinMagnitude
	}
	if row.Status == models.StatusOK {
		c.DisplayText = fmt.Sprintf("%+.2f%%", row.Change)
	}
	return c
}

func isDate(s string) bool {
	return s != "" && s != models.DateNA && s != models.PriorDatePreviousClose
}
