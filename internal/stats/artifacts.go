package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	runIndexFile = "run_index.json"
	configFile   = "config.json"
	scoresFile   = "scores.csv"
	summaryFile  = "summary.json"
	turnLogDir   = "turns"
)

// RunConfig records how a run or batch was set up.
type RunConfig struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Agent    string `json:"agent"`
	Scape    string `json:"scape"`
	Source   string `json:"source,omitempty"`
	Seed     int64  `json:"seed"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Count    int    `json:"count"`
	Workers  int    `json:"workers,omitempty"`
	MaxTurns int    `json:"max_turns,omitempty"`
}

// ScoreRow is one line of scores.csv.
type ScoreRow struct {
	Index   int
	RunID   string
	World   string
	Score   int
	Turns   int
	Outcome string
}

// RunSummary is summary.json: the score statistics plus outcome counts.
type RunSummary struct {
	Summary
	Outcomes map[string]int `json:"outcomes"`
}

type RunArtifacts struct {
	Config  RunConfig
	Scores  []ScoreRow
	Summary RunSummary
	// TurnLogs are copied into the run directory when present.
	TurnLogs []string
}

type RunIndexEntry struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Agent        string  `json:"agent"`
	Scape        string  `json:"scape"`
	Source       string  `json:"source,omitempty"`
	Seed         int64   `json:"seed"`
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// OutcomeCounts tallies rows by outcome name.
func OutcomeCounts(rows []ScoreRow) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Outcome]++
	}
	return counts
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeScores(filepath.Join(runDir, scoresFile), artifacts.Scores); err != nil {
		return "", err
	}
	summary := artifacts.Summary
	if summary.Outcomes == nil {
		summary.Outcomes = OutcomeCounts(artifacts.Scores)
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), summary); err != nil {
		return "", err
	}
	if len(artifacts.TurnLogs) > 0 {
		logDir := filepath.Join(runDir, turnLogDir)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return "", err
		}
		for _, src := range artifacts.TurnLogs {
			if err := copyFile(src, filepath.Join(logDir, filepath.Base(src))); err != nil {
				return "", err
			}
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].ID == entry.ID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run directory, turn logs included, to outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, scoresFile, summaryFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	logs, err := os.ReadDir(filepath.Join(src, turnLogDir))
	if err != nil {
		if os.IsNotExist(err) {
			return dst, nil
		}
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dst, turnLogDir), 0o755); err != nil {
		return "", err
	}
	for _, entry := range logs {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, turnLogDir, entry.Name()), filepath.Join(dst, turnLogDir, entry.Name())); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	var summary RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &summary)
	return summary, ok, err
}

func ReadScores(baseDir, runID string) ([]ScoreRow, bool, error) {
	path := filepath.Join(baseDir, runID, scoresFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []ScoreRow{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 6 {
		return nil, false, fmt.Errorf("scores header must have 6 columns")
	}

	rows := make([]ScoreRow, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 6 {
			return nil, false, fmt.Errorf("scores row must have 6 columns")
		}
		row, err := parseScoreRow(record)
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, row)
	}
	return rows, true, nil
}

func parseScoreRow(record []string) (ScoreRow, error) {
	index, err := strconv.Atoi(record[0])
	if err != nil {
		return ScoreRow{}, fmt.Errorf("scores index: %w", err)
	}
	score, err := strconv.Atoi(record[3])
	if err != nil {
		return ScoreRow{}, fmt.Errorf("scores score: %w", err)
	}
	turns, err := strconv.Atoi(record[4])
	if err != nil {
		return ScoreRow{}, fmt.Errorf("scores turns: %w", err)
	}
	return ScoreRow{
		Index:   index,
		RunID:   record[1],
		World:   record[2],
		Score:   score,
		Turns:   turns,
		Outcome: record[5],
	}, nil
}

func writeScores(path string, rows []ScoreRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"index", "run_id", "world", "score", "turns", "outcome"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			strconv.Itoa(row.Index),
			row.RunID,
			row.World,
			strconv.Itoa(row.Score),
			strconv.Itoa(row.Turns),
			row.Outcome,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func readJSON(path string, value any) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, fmt.Errorf("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
