// Package parquet exports panels, patch records and runs as Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/patchpanel/schema"
	"github.com/parquet-go/parquet-go"
)

// PanelRow is one panel row. Null cells are optional columns.
type PanelRow struct {
	AppID                 int64    `parquet:"appid,snappy"`
	Name                  *string  `parquet:"name,optional,snappy"`
	EventDate             *string  `parquet:"event_date,optional,snappy"` // YYYY-MM-DD
	RelMonth              int32    `parquet:"rel_month,snappy"`
	Month                 *string  `parquet:"month,optional,snappy"` // YYYY-MM
	AvgPlayers            *float64 `parquet:"avg_players,optional,snappy"`
	PeakPlayers           *float64 `parquet:"peak_players,optional,snappy"`
	OwnersEstimate        *float64 `parquet:"owners_estimate,optional,snappy"`
	MetacriticScore       *int32   `parquet:"metacritic_score,optional,snappy"`
	Treatment             int32    `parquet:"treatment,snappy"`
	ReviewCount           *int32   `parquet:"review_count,optional,snappy"`
	ReviewPercentPositive *float64 `parquet:"review_percent_positive,optional,snappy"`
}

// PatchRecord is one classified patch note.
type PatchRecord struct {
	AppID           int64     `parquet:"appid,snappy"`
	Title           string    `parquet:"title,snappy"`
	Body            string    `parquet:"body,snappy"`
	PublishedAt     time.Time `parquet:"published_at,snappy"`
	SourceTimestamp int64     `parquet:"source_timestamp,snappy"`
	IsMajor         bool      `parquet:"is_major,snappy"`
	Reason          string    `parquet:"reason,snappy"`
}

// ComparisonEntry is one game of an update-group comparison.
type ComparisonEntry struct {
	AppID           int64    `parquet:"appid,snappy"`
	UpdatedRecently bool     `parquet:"updated_recently,snappy"`
	LastPatchDate   *string  `parquet:"last_patch_date,optional,snappy"` // YYYY-MM-DD
	OwnersRaw       *string  `parquet:"owners_raw,optional,snappy"`
	OwnersValue     *float64 `parquet:"owners_value,optional,snappy"`
	OwnersSource    string   `parquet:"owners_source,snappy"`
}

// TopGame is one ranked game.
type TopGame struct {
	Rank           int32  `parquet:"rank,snappy"`
	AppID          int64  `parquet:"appid,snappy"`
	Name           string `parquet:"name,snappy"`
	CurrentPlayers *int64 `parquet:"current_players,optional,snappy"`
	Source         string `parquet:"source,snappy"`
}

// Run is one recorded batch.
type Run struct {
	RunID         string     `parquet:"run_id,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int64     `parquet:"run_duration_ms,optional,snappy"`
	TotalGames    int32      `parquet:"total_games,snappy"`
	ConfigParams  *string    `parquet:"config_params,optional,snappy"`
}

// FromPanelRows converts panel rows to their Parquet shape.
func FromPanelRows(rows []schema.PanelRow) []PanelRow {
	out := make([]PanelRow, len(rows))
	for i, r := range rows {
		out[i] = PanelRow{
			AppID:          r.AppID,
			Name:           r.Name,
			EventDate:      formatOptional(r.EventDate, schema.DateLayout),
			RelMonth:       int32(r.RelMonth),
			Month:          formatOptional(r.Month, schema.MonthLayout),
			AvgPlayers:     r.AvgPlayers,
			PeakPlayers:    r.PeakPlayers,
			OwnersEstimate: r.OwnersEstimate,
			Treatment:      int32(r.Treatment),
		}
		if r.MetacriticScore != nil {
			out[i].MetacriticScore = schema.Ptr(int32(*r.MetacriticScore))
		}
		if r.ReviewCount != nil {
			out[i].ReviewCount = schema.Ptr(int32(*r.ReviewCount))
		}
		out[i].ReviewPercentPositive = r.ReviewPercentPositive
	}
	return out
}

// FromComparisonEntries converts comparison details to their Parquet shape.
func FromComparisonEntries(entries []schema.ComparisonEntry) []ComparisonEntry {
	out := make([]ComparisonEntry, len(entries))
	for i, e := range entries {
		out[i] = ComparisonEntry{
			AppID:           e.AppID,
			UpdatedRecently: e.UpdatedRecently,
			LastPatchDate:   formatOptional(e.LastPatchDate, schema.DateLayout),
			OwnersRaw:       e.OwnersRaw,
			OwnersValue:     e.OwnersValue,
			OwnersSource:    e.OwnersSource,
		}
	}
	return out
}

// FromTopGames converts ranked games to their Parquet shape.
func FromTopGames(games []schema.TopGame) []TopGame {
	out := make([]TopGame, len(games))
	for i, g := range games {
		out[i] = TopGame{
			Rank:   int32(g.Rank),
			AppID:  g.AppID,
			Name:   g.Name,
			Source: g.Source,
		}
		if g.CurrentPlayers != nil {
			out[i].CurrentPlayers = schema.Ptr(int64(*g.CurrentPlayers))
		}
	}
	return out
}

// FromPatchRecords converts patch records to their Parquet shape.
func FromPatchRecords(records []schema.PatchRecord) []PatchRecord {
	out := make([]PatchRecord, len(records))
	for i, r := range records {
		out[i] = PatchRecord{
			AppID:           r.AppID,
			Title:           r.Title,
			Body:            r.Body,
			PublishedAt:     r.PublishedAt,
			SourceTimestamp: r.SourceTimestamp,
			IsMajor:         r.IsMajor,
			Reason:          string(r.Reason),
		}
	}
	return out
}

// FromRunRecords converts stored runs to their Parquet shape.
func FromRunRecords(runs []schema.RunRecord) []Run {
	out := make([]Run, len(runs))
	for i, r := range runs {
		out[i] = Run{
			RunID:         r.RunID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			TotalGames:    int32(r.TotalGames),
			ConfigParams:  r.ConfigParams,
		}
	}
	return out
}

func formatOptional(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	return schema.Ptr(t.Format(layout))
}

// Write encodes rows to w using the schema inferred from T's struct tags.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at path.
func WriteFile[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Write(file, rows)
}
