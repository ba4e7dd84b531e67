// Package panel aligns each game's monthly series on a relative-month axis around its anchor.
package panel

import (
	"time"

	"github.com/huangsam/patchpanel/core/series"
	"github.com/huangsam/patchpanel/schema"
)

// Anchor picks the rel_month 0 month of a game.
// Treated games anchor on the month of their first major patch; controls on their own latest month.
func Anchor(game schema.GameInput) (anchor time.Time, treatment int, ok bool) {
	if first := game.Summary.FirstMajorPatchDate; first != nil {
		return schema.MonthStart(*first), 1, true
	}
	latest, ok := series.Latest(game.Series)
	return latest, 0, ok
}

// Build emits RowsPerGame rows per game, games in input order and rel_month ascending.
// Months missing from a series keep null player counts.
func Build(games []schema.GameInput) []schema.PanelRow {
	rows := make([]schema.PanelRow, 0, len(games)*schema.RowsPerGame)
	for _, game := range games {
		rows = append(rows, buildGame(game)...)
	}
	return rows
}

func buildGame(game schema.GameInput) []schema.PanelRow {
	anchor, treatment, hasAnchor := Anchor(game)
	index := series.Lookup(game.Series)

	var eventDate *time.Time
	if treatment == 1 {
		eventDate = &anchor
	}

	rows := make([]schema.PanelRow, 0, schema.RowsPerGame)
	for rel := schema.MinRelMonth; rel <= schema.MaxRelMonth; rel++ {
		row := schema.PanelRow{
			AppID:                 game.AppID,
			Name:                  game.Name,
			EventDate:             eventDate,
			RelMonth:              rel,
			OwnersEstimate:        game.OwnersEstimate,
			MetacriticScore:       game.MetacriticScore,
			Treatment:             treatment,
			ReviewCount:           game.ReviewCount,
			ReviewPercentPositive: game.ReviewPercentPositive,
		}
		if hasAnchor {
			month := schema.AddMonths(anchor, rel)
			row.Month = &month
			if p, found := index[month]; found {
				row.AvgPlayers = schema.Ptr(p.AvgPlayers)
				row.PeakPlayers = schema.Ptr(p.PeakPlayers)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
