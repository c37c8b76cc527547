package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFullConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	doc := `
agent: random
seed: 0
width: 5
height: 6
count: 20
workers: 4
max_turns: 200
store: sqlite
db_path: runs.db
artifacts_dir: artifacts
turn_log_dir: turns
output: score.txt
log_level: debug
log_format: json
script: [forward, grab, climb]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Agent != "random" || cfg.Width != 5 || cfg.Height != 6 || cfg.Count != 20 || cfg.Workers != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 0 {
		t.Fatalf("expected explicit zero seed, got %v", cfg.Seed)
	}
	if cfg.MaxTurns != 200 || cfg.Store != "sqlite" || cfg.DBPath != "runs.db" || cfg.Output != "score.txt" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ArtifactsDir != "artifacts" || cfg.TurnLogDir != "turns" || cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Script) != 3 || cfg.Script[2] != "climb" {
		t.Fatalf("unexpected script: %v", cfg.Script)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if cfg.Seed != nil || cfg.Agent != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field":   "agent: random\nspeed: 3\n",
		"zero width":      "width: 0\n",
		"negative count":  "count: -1\n",
		"fractional seed": "seed: 1.5\n",
		"bad store":       "store: redis\n",
		"bad log format":  "log_format: xml\n",
		"both sources":    "world: a.txt\nworlds: dir\n",
		"not a mapping":   "- agent\n",
		"broken yaml":     "agent: [random\n",
		"string count":    "count: many\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
