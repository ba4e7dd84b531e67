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

// TopHeader is the column order of the top games CSV.
var TopHeader = []string{"rank", "appid", "name", "current_players", "source"}

// WriteTopResults outputs the most-played games.
func WriteTopResults(report schema.TopReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteTopCSV(w, report.Games)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires an output file")
		}
		if err := parquet.WriteFile(cfg.OutputFile, parquet.FromTopGames(report.Games)); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTopTable(report, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// WriteTopCSV writes one row per ranked game.
func WriteTopCSV(w io.Writer, games []schema.TopGame) error {
	return writeCSVWithHeader(w, TopHeader, func(cw *csv.Writer) error {
		for _, g := range games {
			rec := []string{
				strconv.Itoa(g.Rank),
				strconv.FormatInt(g.AppID, 10),
				g.Name,
				optInt(g.CurrentPlayers),
				g.Source,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTopTable(report schema.TopReport, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Rank", "AppID", "Name", "Players"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	for _, g := range report.Games {
		data = append(data, []string{
			strconv.Itoa(g.Rank),
			strconv.FormatInt(g.AppID, 10),
			contract.TruncateName(g.Name, nameWidth),
			optInt(g.CurrentPlayers),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	source := "none"
	if len(report.Games) > 0 {
		source = report.Games[0].Source
	}
	if _, err := fmt.Fprintf(writer, "%d games ranked from %s in %v\n", len(report.Games), source, duration.Round(time.Millisecond)); err != nil {
		return err
	}
	return nil
}
