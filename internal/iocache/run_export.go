package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/parquet"
	"github.com/huangsam/patchpanel/schema"
)

// runLister is implemented by run stores that can enumerate their runs.
type runLister interface {
	GetAllRuns() ([]schema.RunRecord, error)
}

// ExportRuns writes every stored run to a Parquet file and reports progress to w.
func ExportRuns(store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	lister, ok := store.(runLister)
	if store == nil || !ok {
		return errors.New("run tracking is disabled. Set --run-backend to export runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no runs found to export")
	}

	runs, err := lister.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	if err := parquet.WriteFile(outputFile, parquet.FromRunRecords(runs)); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Exported %d runs from %s backend to %s\n", len(runs), status.Backend, outputFile)
	return nil
}
