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

// ComparisonHeader is the column order of the comparison CSV.
var ComparisonHeader = []string{
	"appid",
	"updated_recently",
	"last_patch_date",
	"owners_raw",
	"owners_value",
	"owners_source",
}

// WriteComparisonResults outputs the update-group comparison.
// JSON writes the full report; CSV and parquet write the per-game details.
func WriteComparisonResults(report schema.ComparisonReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteComparisonCSV(w, report.Details)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires an output file")
		}
		if err := parquet.WriteFile(cfg.OutputFile, parquet.FromComparisonEntries(report.Details)); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(report, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// WriteComparisonCSV writes one row per game with full-precision owner values.
func WriteComparisonCSV(w io.Writer, entries []schema.ComparisonEntry) error {
	return writeCSVWithHeader(w, ComparisonHeader, func(cw *csv.Writer) error {
		for _, e := range entries {
			rec := []string{
				strconv.FormatInt(e.AppID, 10),
				strconv.FormatBool(e.UpdatedRecently),
				formatOptionalTime(e.LastPatchDate, schema.DateLayout),
				optString(e.OwnersRaw),
				optFullFloat(e.OwnersValue),
				e.OwnersSource,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeComparisonTable(report schema.ComparisonReport, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"AppID", "Updated", "Last Patch", "Owners", "Source"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, e := range report.Details {
		updated := "no"
		if e.UpdatedRecently {
			updated = "yes"
		}
		data = append(data, []string{
			strconv.FormatInt(e.AppID, 10),
			updated,
			formatOptionalTime(e.LastPatchDate, schema.DateLayout),
			formatOwners(e.OwnersValue, fmtFloat),
			e.OwnersSource,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := report.Summary
	if _, err := fmt.Fprintf(writer, "Updated in the last %d months: %d of %d games\n", s.Months, s.UpdatedCount, s.TotalChecked); err != nil {
		return err
	}
	for _, group := range []struct {
		label string
		stats schema.GroupStats
	}{
		{"Updated", s.UpdatedStats},
		{"Not updated", s.NotUpdatedStats},
	} {
		if _, err := fmt.Fprintf(writer, "%s: %d with owners, mean %s, median %s\n",
			group.label, group.stats.Count, formatStat(group.stats.Mean, fmtFloat), formatStat(group.stats.Median, fmtFloat)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Compared in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// formatStat renders a group statistic, or n/a for an empty group.
func formatStat(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return "n/a"
	}
	return formatOwners(v, fmtFloat)
}
