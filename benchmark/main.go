// Package main provides a performance benchmarking tool for the repoaudit CLI.
// It scans each repository several times without the assessment cache and then
// with a freshly cleared SQLite cache, treating the first cached run as cold and
// averaging the rest as warm, and writes the timings to a CSV file.
//
// Prerequisites:
// - repoaudit binary installed and available in PATH
// - Assessment service credentials in the environment (REPOAUDIT_API_KEY, ...)
//
// Usage: go run benchmark/main.go <repo-url> [repo-url...]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Repository  string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	RepoURLs    []string
	CacheFile   string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s <repo-url> [repo-url...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Timeout:     15 * time.Minute,
		Workers:     8,
		NoCacheRuns: 2,
		CacheRuns:   3,
		RepoURLs:    os.Args[1:],
		CacheFile:   fmt.Sprintf("%s/repoaudit_benchmark_cache.db", os.TempDir()),
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the repoaudit binary and credentials are available
func checkPrerequisites() error {
	if _, err := exec.LookPath("repoaudit"); err != nil {
		return errors.New("repoaudit binary not found in PATH")
	}
	if os.Getenv("REPOAUDIT_API_KEY") == "" {
		return errors.New("REPOAUDIT_API_KEY is not set")
	}
	return nil
}

// runBenchmarks executes the benchmark suite for every configured repository
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.RepoURLs), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, url := range config.RepoURLs {
		fmt.Printf("Benchmarking %s\n", url)
		results = append(results, runBenchmarkSuite(config, url))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a repository
func runBenchmarkSuite(config BenchmarkConfig, url string) BenchmarkResult {
	// Helper to run a benchmark phase
	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, url, cacheArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs, starting from an empty cache
	cacheArgs := []string{"--cache-backend", "sqlite", "--cache-db-connect", config.CacheFile}
	clearCache(cacheArgs)
	coldTime, warmAvg := runPhase(cacheArgs, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:  url,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// clearCache empties the benchmark cache with repoaudit cache clear
func clearCache(cacheArgs []string) {
	cmd := exec.Command("repoaudit", append([]string{"cache", "clear"}, cacheArgs...)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
}

// runBenchmark scans url several times and returns the first successful time and the remaining ones
func runBenchmark(config BenchmarkConfig, url string, cacheArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{"scan", url, "--workers", fmt.Sprint(config.Workers), "--store-backend", "none"}, cacheArgs...)

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "repoaudit", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Scan completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s/repoaudit_benchmark_%s.csv", os.TempDir(), timestamp)

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
	if err := writer.Write([]string{"repo", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-40s: No-cache: %s, Cold: %s, Warm: %s\n", result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
