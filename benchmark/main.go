// Package main benchmarks the patchpanel CLI against live Steam endpoints.
// Each batch runs without a cache and then repeatedly against a fresh SQLite cache:
// the first cached run is cold, the rest are averaged as warm.
//
// Prerequisites:
// - patchpanel binary installed and available in PATH
// - Network access to Steam, SteamDB and SteamCharts
//
// Usage: go run benchmark/main.go [output-dir]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Batch       string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	OutputDir   string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Batches     []string
	AppIDs      map[string]string
	Commands    []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [output-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		OutputDir:   os.Args[1],
		Timeout:     10 * time.Minute,
		NoCacheRuns: 2,
		CacheRuns:   4,
		Batches:     []string{"single", "small", "medium"},
		AppIDs: map[string]string{
			"single": "730",
			"small":  "730,570,440",
			"medium": "730,570,440,578080,1172470,252490,271590,359550,230410,105600",
		},
		Commands: []string{"patches", "panel"},
	}

	if _, err := exec.LookPath("patchpanel"); err != nil {
		fmt.Println("Prerequisites check failed: patchpanel binary not found in PATH")
		os.Exit(1)
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		fmt.Printf("Cannot create output dir: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(config.OutputDir, results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// runBenchmarks executes every command over every batch.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d batches, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Batches), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, batch := range config.Batches {
		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, batch, command))
		}
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command.
func runBenchmarkSuite(config BenchmarkConfig, batch, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s batch\n", command, batch)
	cacheFile := filepath.Join(config.OutputDir, fmt.Sprintf("bench_%s_%s.db", batch, command))
	_ = os.Remove(cacheFile)
	defer func() { _ = os.Remove(cacheFile) }()

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, batch, command, cacheBackend, cacheFile, numRuns)
		avgTime = formatAverage(times)
		if cacheBackend == "none" {
			avgTime = formatAverage(append([]float64{cold}, times...))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Batch:       batch,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a patchpanel command numRuns times and returns the cold time and warm times.
func runBenchmark(config BenchmarkConfig, batch, command, cacheBackend, cacheFile string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--appids", config.AppIDs[batch],
		"--cache-backend", cacheBackend,
		"--cache-db-connect", cacheFile,
		"--output", "json",
		"--output-file", filepath.Join(config.OutputDir, fmt.Sprintf("bench_%s_%s.json", batch, command)),
		"--log-level", "warn",
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "patchpanel", args...).CombinedOutput()
		cancel()
		if err != nil {
			fmt.Printf("    run failed: %v\n%s\n", err, string(output))
			continue
		}
		times = append(times, time.Since(start).Seconds())
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return coldTime, warmTimes
}

// formatAverage renders the mean of times, or TIMEOUT when nothing finished.
func formatAverage(times []float64) string {
	var sum float64
	var n int
	for _, t := range times {
		if t > 0 {
			sum += t
			n++
		}
	}
	if n == 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", sum/float64(n))
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(dir string, results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("patchpanel_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"batch", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Batch, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results per command.
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Batch, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
