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

// SummaryHeader is the column order of the patch summary CSV.
var SummaryHeader = []string{
	"appid",
	"total_patches",
	"major_patches",
	"minor_patches",
	"has_major_patch",
	"first_major_patch_date",
	"last_patch_date",
}

// WritePatchResults outputs the per-game patch summaries in order.
// JSON writes the full report and parquet writes the patch records.
func WritePatchResults(report schema.PatchReport, order []int64, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteSummaryCSV(w, orderedSummaries(report, order))
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires an output file")
		}
		if err := parquet.WriteFile(cfg.OutputFile, parquet.FromPatchRecords(report.Patches)); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(report, orderedSummaries(report, order), cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// orderedSummaries lists the report summaries in batch order.
func orderedSummaries(report schema.PatchReport, order []int64) []schema.GamePatchSummary {
	out := make([]schema.GamePatchSummary, 0, len(order))
	for _, appID := range order {
		if s, ok := report.Summary[schema.AppIDKey(appID)]; ok {
			out = append(out, s)
		}
	}
	return out
}

// WriteSummaryCSV writes one row per game.
func WriteSummaryCSV(w io.Writer, summaries []schema.GamePatchSummary) error {
	return writeCSVWithHeader(w, SummaryHeader, func(cw *csv.Writer) error {
		for _, s := range summaries {
			rec := []string{
				strconv.FormatInt(s.AppID, 10),
				strconv.Itoa(s.TotalPatches),
				strconv.Itoa(s.MajorPatches),
				strconv.Itoa(s.MinorPatches),
				strconv.FormatBool(s.HasMajorPatch),
				formatOptionalTime(s.FirstMajorPatchDate, schema.DateLayout),
				formatOptionalTime(s.LastPatchDate, schema.DateLayout),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSummaryTable(report schema.PatchReport, summaries []schema.GamePatchSummary, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"AppID", "Patches", "Major", "Minor", "First Major", "Last Patch", "Group"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	var data [][]string
	for _, s := range summaries {
		treatment := 0
		if s.HasMajorPatch {
			treatment = 1
		}
		data = append(data, []string{
			strconv.FormatInt(s.AppID, 10),
			strconv.Itoa(s.TotalPatches),
			strconv.Itoa(s.MajorPatches),
			strconv.Itoa(s.MinorPatches),
			formatOptionalTime(s.FirstMajorPatchDate, schema.DateLayout),
			formatOptionalTime(s.LastPatchDate, schema.DateLayout),
			label(treatment),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "%d patch records over %s\n", len(report.Patches), report.Period); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Extracted in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}
