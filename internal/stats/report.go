package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FormatScore prints a score with at most six significant digits, the way
// score reports have always been written.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// WriteScoreReport writes "SCORE: <mean>" and, for batches, "STDEV: <std>".
func WriteScoreReport(path string, summary Summary, batch bool) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("report path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SCORE: %s\n", FormatScore(summary.Mean))
	if batch {
		fmt.Fprintf(&b, "STDEV: %s\n", FormatScore(summary.StdDev))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ReadScoreReport parses a report written by WriteScoreReport. hasStdDev is
// false for single-run reports.
func ReadScoreReport(path string) (score float64, stdDev float64, hasStdDev bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, false, err
	}
	var sawScore bool
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if perr != nil {
			return 0, 0, false, fmt.Errorf("parse %s: %w", key, perr)
		}
		switch key {
		case "SCORE":
			score, sawScore = parsed, true
		case "STDEV":
			stdDev, hasStdDev = parsed, true
		}
	}
	if !sawScore {
		return 0, 0, false, fmt.Errorf("%s: no SCORE line", path)
	}
	return score, stdDev, hasStdDev, nil
}
