package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleComparison() schema.ComparisonReport {
	last := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return schema.ComparisonReport{
		GeneratedAt: last,
		Summary: schema.ComparisonSummary{
			Months:          6,
			TotalChecked:    2,
			UpdatedCount:    1,
			NotUpdatedCount: 1,
			UpdatedStats:    schema.GroupStats{Count: 1, Mean: schema.Ptr(75e6), Median: schema.Ptr(75e6)},
		},
		Details: []schema.ComparisonEntry{
			{AppID: 730, UpdatedRecently: true, LastPatchDate: &last, OwnersRaw: schema.Ptr("50,000,000 .. 100,000,000"), OwnersValue: schema.Ptr(75_000_000.5), OwnersSource: schema.OwnersFromSteamDB},
			{AppID: 10},
		},
	}
}

func TestWriteComparisonCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteComparisonCSV(&buf, sampleComparison().Details))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ComparisonHeader, records[0])
	assert.Equal(t, []string{"730", "true", "2024-05-01", "50,000,000 .. 100,000,000", "75000000.5", "steamdb"}, records[1])
	assert.Equal(t, []string{"10", "false", "", "", "", ""}, records[2])
}

func TestWriteComparisonResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path}
	require.NoError(t, NewOutWriter().WriteComparison(sampleComparison(), cfg, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got schema.ComparisonReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 6, got.Summary.Months)
	assert.Equal(t, 75e6, *got.Summary.UpdatedStats.Mean)
	assert.Nil(t, got.Summary.NotUpdatedStats.Mean)
	require.Len(t, got.Details, 2)
	assert.Equal(t, schema.OwnersFromSteamDB, got.Details[0].OwnersSource)
}

func TestWriteComparisonResultsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.txt")
	cfg := &contract.Config{Output: schema.TextOut, OutputFile: path, Precision: 1, CacheBackend: schema.NoneBackend}
	require.NoError(t, WriteComparisonResults(sampleComparison(), cfg, time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Updated in the last 6 months: 1 of 2 games")
	assert.Contains(t, out, "Updated: 1 with owners, mean 75.0M, median 75.0M")
	assert.Contains(t, out, "Not updated: 0 with owners, mean n/a, median n/a")
}

func TestWriteComparisonResultsParquet(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	assert.Error(t, WriteComparisonResults(sampleComparison(), cfg, 0))

	cfg.OutputFile = filepath.Join(t.TempDir(), "compare.parquet")
	require.NoError(t, WriteComparisonResults(sampleComparison(), cfg, 0))
	info, err := os.Stat(cfg.OutputFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func sampleTop() schema.TopReport {
	return schema.TopReport{
		GeneratedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Games: []schema.TopGame{
			{Rank: 1, AppID: 730, Name: "Counter-Strike 2", CurrentPlayers: schema.Ptr(1_200_000), Source: schema.SourceChartsTop},
			{Rank: 2, AppID: 570, Name: "Dota 2", Source: schema.SourceChartsTop},
		},
	}
}

func TestWriteTopCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTopCSV(&buf, sampleTop().Games))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, TopHeader, records[0])
	assert.Equal(t, []string{"1", "730", "Counter-Strike 2", "1200000", "steamcharts_top"}, records[1])
	assert.Equal(t, []string{"2", "570", "Dota 2", "", "steamcharts_top"}, records[2])
}

func TestWriteTopResultsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.txt")
	cfg := &contract.Config{Output: schema.TextOut, OutputFile: path, Width: 120}
	require.NoError(t, NewOutWriter().WriteTop(sampleTop(), cfg, time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Counter-Strike 2")
	assert.Contains(t, string(data), "2 games ranked from steamcharts_top")
}

func TestWriteTopResultsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path}
	require.NoError(t, WriteTopResults(sampleTop(), cfg, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got schema.TopReport
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Games, 2)
	assert.Equal(t, int64(570), got.Games[1].AppID)
	assert.Nil(t, got.Games[1].CurrentPlayers)
}
