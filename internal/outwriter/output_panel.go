package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/parquet"
	"github.com/huangsam/patchpanel/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PanelHeader is the column order of the persisted panel.
var PanelHeader = []string{
	"appid",
	"name",
	"event_date",
	"rel_month",
	"month",
	"avg_players",
	"peak_players",
	"owners_estimate",
	"metacritic_score",
	"treatment",
}

// WritePanelResults outputs the panel, dispatching based on the output format configured.
func WritePanelResults(report schema.PanelReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, optFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WritePanelCSV(w, report.Rows)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires an output file")
		}
		if err := parquet.WriteFile(cfg.OutputFile, parquet.FromPanelRows(report.Rows)); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePanelTable(report, cfg, fmtFloat, optFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// WritePanelCSV writes the panel with one header row. Null cells are empty strings
// and floats keep full precision.
func WritePanelCSV(w io.Writer, rows []schema.PanelRow) error {
	return writeCSVWithHeader(w, PanelHeader, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				strconv.FormatInt(r.AppID, 10),
				optString(r.Name),
				formatOptionalTime(r.EventDate, schema.DateLayout),
				strconv.Itoa(r.RelMonth),
				formatOptionalTime(r.Month, schema.MonthLayout),
				optFullFloat(r.AvgPlayers),
				optFullFloat(r.PeakPlayers),
				optFullFloat(r.OwnersEstimate),
				optInt(r.MetacriticScore),
				strconv.Itoa(r.Treatment),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writePanelTable generates and writes the human-readable table.
func writePanelTable(report schema.PanelReport, cfg *contract.Config, fmtFloat func(float64) string, optFloat func(*float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"AppID", "Name", "Event", "Rel", "Month", "Avg", "Peak", "Owners", "Meta", "Group"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	var data [][]string
	for _, r := range report.Rows {
		data = append(data, []string{
			strconv.FormatInt(r.AppID, 10),
			contract.TruncateName(optString(r.Name), nameWidth),
			formatOptionalTime(r.EventDate, schema.DateLayout),
			fmt.Sprintf("%+d", r.RelMonth),
			formatOptionalTime(r.Month, schema.MonthLayout),
			optFloat(r.AvgPlayers),
			optFloat(r.PeakPlayers),
			formatOwners(r.OwnersEstimate, fmtFloat),
			optInt(r.MetacriticScore),
			label(r.Treatment),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Panel of %d games (%d treated, %d control), %d rows\n",
		report.Games, report.Treated, report.Control, len(report.Rows)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Built in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// formatOwners shortens large owner counts for the table.
func formatOwners(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return ""
	}
	switch {
	case *v >= 1e6:
		return fmtFloat(*v/1e6) + "M"
	case *v >= 1e3:
		return fmtFloat(*v/1e3) + "K"
	default:
		return fmtFloat(*v)
	}
}

func formatOptionalTime(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}
