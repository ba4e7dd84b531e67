package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patchpanel/internal/parquet"
	pq "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRuns(t *testing.T) {
	store, _ := newSQLiteRunStore(t)
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(start, map[string]any{"window_days": 365})
	require.NoError(t, err)
	require.NoError(t, store.EndRun(runID, start.Add(time.Minute), 3))

	out := filepath.Join(t.TempDir(), "runs.parquet")
	var buf bytes.Buffer
	require.NoError(t, ExportRuns(store, out, &buf))
	assert.Contains(t, buf.String(), "Exported 1 runs from sqlite backend")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	require.NoError(t, err)
	rows, err := pq.Read[parquet.Run](f, info.Size())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, runID, rows[0].RunID)
}

func TestExportRunsErrors(t *testing.T) {
	store, _ := newSQLiteRunStore(t)
	out := filepath.Join(t.TempDir(), "runs.parquet")

	err := ExportRuns(store, "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "--output-file is required")

	err = ExportRuns(nil, out, &bytes.Buffer{})
	assert.ErrorContains(t, err, "run tracking is disabled")

	err = ExportRuns(store, out, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no runs found")
}
