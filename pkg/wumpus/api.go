package wumpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"wumpus/internal/agent"
	"wumpus/internal/engine"
	"wumpus/internal/eventlog"
	"wumpus/internal/model"
	"wumpus/internal/platform"
	"wumpus/internal/scape"
	"wumpus/internal/scapeid"
	"wumpus/internal/stats"
	"wumpus/internal/storage"
	"wumpus/internal/worldfile"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"

	kindRun   = "run"
	kindBatch = "batch"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store    storage.Store
	platform *platform.Platform

	artifactsDir string
	exportsDir   string
}

type RunRequest struct {
	// AgentKind is ignored when Agent is set.
	AgentKind string
	Agent     engine.Agent
	Script    []engine.Action
	Seed      int64
	// World is a world file. When empty a Width x Height world is drawn
	// from Seed.
	World      string
	Width      int
	Height     int
	MaxTurns   int
	TurnLogDir string
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Score        int
	Turns        int
	Outcome      string
	Hazard       string
	HoldsGold    bool
	WumpusKilled bool
	TurnLog      string
}

type BatchRequest struct {
	AgentKind string
	Script    []engine.Action
	// Worlds is a folder of world files. When empty, Count random worlds
	// are drawn from Seed.
	Worlds     string
	Count      int
	Width      int
	Height     int
	Seed       int64
	MaxTurns   int
	Workers    int
	TurnLogDir string

	// In and Out serve the manual agent; they default to stdin and stdout.
	In  io.Reader
	Out io.Writer
}

type BatchSummary struct {
	BatchID      string
	ArtifactsDir string
	Summary      stats.Summary
	Outcomes     map[string]int
	Runs         []model.RunRecord
}

type GenerateRequest struct {
	Dir    string
	Base   string
	Count  int
	Width  int
	Height int
	Seed   int64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	ID           string
	Kind         string
	CreatedAtUTC string
	Agent        string
	Scape        string
	Source       string
	Seed         int64
	Count        int
	Mean         float64
	StdDev       float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
	Kind      string
	Agent     string
	Count     int
	Mean      float64
	StdDev    float64
	Outcomes  map[string]int
}

type ReplaySummary struct {
	RunID   string
	Agent   string
	Turns   int
	Score   int
	Outcome string
	// Board is the final board, top row first, with the agent marked @.
	Board string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, opts.DBPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	if c.platform != nil {
		c.platform.Stop()
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePlatform(ctx)
	return err
}

// Platform exposes the initialised platform, for callers such as the
// websocket server that drive episodes themselves.
func (c *Client) Platform(ctx context.Context) (*platform.Platform, error) {
	return c.ensurePlatform(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	p, err := c.ensurePlatform(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	kind := scapeid.NormalizeAgent(req.AgentKind)
	a := req.Agent
	if a == nil {
		if kind == "" {
			kind = scapeid.AgentRandom
		}
		a, err = agent.New(kind, agent.Options{Seed: req.Seed, Script: req.Script})
		if err != nil {
			return RunSummary{}, err
		}
	}
	if closer, ok := a.(interface{ Close() }); ok {
		defer closer.Close()
	}

	var s scape.Scape = scape.WumpusScape{Width: req.Width, Height: req.Height, Seed: req.Seed, MaxTurns: req.MaxTurns}
	source := ""
	if req.World != "" {
		s = scape.FileScape{Path: req.World, MaxTurns: req.MaxTurns}
		source = req.World
	}

	record, err := p.Evaluate(ctx, platform.EvaluationConfig{
		RunID:      uuid.NewString(),
		Scape:      s,
		Agent:      a,
		AgentKind:  kind,
		Seed:       req.Seed,
		TurnLogDir: req.TurnLogDir,
	})
	if err != nil {
		return RunSummary{}, err
	}

	records := []model.RunRecord{record}
	runDir, err := c.writeArtifacts(stats.RunConfig{
		ID:       record.ID,
		Kind:     kindRun,
		Agent:    kind,
		Scape:    record.Scape,
		Source:   source,
		Seed:     req.Seed,
		Width:    record.Width,
		Height:   record.Height,
		Count:    1,
		MaxTurns: req.MaxTurns,
	}, records, record.CreatedAtUTC)
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:        record.ID,
		ArtifactsDir: runDir,
		Score:        record.Score,
		Turns:        record.Turns,
		Outcome:      record.Outcome,
		Hazard:       record.Hazard,
		HoldsGold:    record.HoldsGold,
		WumpusKilled: record.WumpusKilled,
		TurnLog:      record.TurnLog,
	}, nil
}

func (c *Client) Batch(ctx context.Context, req BatchRequest) (BatchSummary, error) {
	p, err := c.ensurePlatform(ctx)
	if err != nil {
		return BatchSummary{}, err
	}

	kind := scapeid.NormalizeAgent(req.AgentKind)
	if kind == "" {
		kind = scapeid.AgentRandom
	}
	workers := req.Workers
	switch kind {
	case scapeid.AgentManual, scapeid.AgentTerminal:
		// One human, one world at a time.
		workers = 1
	}

	var in io.Reader
	if kind == scapeid.AgentManual {
		src := req.In
		if src == nil {
			src = os.Stdin
		}
		// Every world reads from the same buffer.
		in = bufio.NewReader(src)
	}

	var worlds []string
	if req.Worlds != "" {
		worlds, err = worldfile.ListDir(req.Worlds)
		if err != nil {
			return BatchSummary{}, err
		}
		if len(worlds) == 0 {
			return BatchSummary{}, fmt.Errorf("no world files in %s", req.Worlds)
		}
	}

	batch, records, err := p.RunBatch(ctx, platform.BatchConfig{
		BatchID:   uuid.NewString(),
		AgentKind: kind,
		NewAgent: func(_ int, seed int64) (engine.Agent, error) {
			return agent.New(kind, agent.Options{Seed: seed, Script: req.Script, In: in, Out: req.Out})
		},
		Worlds:     worlds,
		Source:     req.Worlds,
		Count:      req.Count,
		Width:      req.Width,
		Height:     req.Height,
		Seed:       req.Seed,
		MaxTurns:   req.MaxTurns,
		Workers:    workers,
		TurnLogDir: req.TurnLogDir,
	})
	if err != nil {
		return BatchSummary{}, err
	}

	runDir, err := c.writeArtifacts(stats.RunConfig{
		ID:       batch.ID,
		Kind:     kindBatch,
		Agent:    kind,
		Scape:    batch.Scape,
		Source:   req.Worlds,
		Seed:     req.Seed,
		Width:    req.Width,
		Height:   req.Height,
		Count:    len(records),
		Workers:  workers,
		MaxTurns: req.MaxTurns,
	}, records, batch.CreatedAtUTC)
	if err != nil {
		return BatchSummary{}, err
	}

	rows := scoreRows(records)
	return BatchSummary{
		BatchID:      batch.ID,
		ArtifactsDir: runDir,
		Summary: stats.Summary{
			Count:  batch.Runs,
			Mean:   batch.Mean,
			StdDev: batch.StdDev,
			Min:    batch.Min,
			Max:    batch.Max,
		},
		Outcomes: stats.OutcomeCounts(rows),
		Runs:     records,
	}, nil
}

func (c *Client) Generate(_ context.Context, req GenerateRequest) ([]string, error) {
	return worldfile.Generate(worldfile.GenerateOptions{
		Dir:    req.Dir,
		Base:   req.Base,
		Count:  req.Count,
		Width:  req.Width,
		Height: req.Height,
	}, rand.New(rand.NewSource(req.Seed)))
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			ID:           e.ID,
			Kind:         e.Kind,
			CreatedAtUTC: e.CreatedAtUTC,
			Agent:        e.Agent,
			Scape:        e.Scape,
			Source:       e.Source,
			Seed:         e.Seed,
			Count:        e.Count,
			Mean:         e.Mean,
			StdDev:       e.StdDev,
		})
	}
	return out, nil
}

// Batches returns stored batch records, newest first.
func (c *Client) Batches(ctx context.Context, limit int) ([]model.BatchRecord, error) {
	p, err := c.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	batches, err := p.Store().ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(batches)-1; i < j; i, j = i+1, j-1 {
		batches[i], batches[j] = batches[j], batches[i]
	}
	if limit > 0 && len(batches) > limit {
		batches = batches[:limit]
	}
	return batches, nil
}

// StoredRuns returns the stored runs of a batch in world order, or every
// stored run when batchID is empty.
func (c *Client) StoredRuns(ctx context.Context, batchID string) ([]model.RunRecord, error) {
	p, err := c.ensurePlatform(ctx)
	if err != nil {
		return nil, err
	}
	return p.Store().ListRuns(ctx, batchID)
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].ID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}

	cfg, ok, err := stats.ReadRunConfig(req.OutDir, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("export %s: missing run config", runID)
	}
	summary, ok, err := stats.ReadRunSummary(req.OutDir, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("export %s: missing run summary", runID)
	}
	return ExportSummary{
		RunID:     runID,
		Directory: filepath.Clean(exportedDir),
		Kind:      cfg.Kind,
		Agent:     cfg.Agent,
		Count:     summary.Count,
		Mean:      summary.Mean,
		StdDev:    summary.StdDev,
		Outcomes:  summary.Outcomes,
	}, nil
}

// Replay re-drives a fresh engine with the actions of a turn log and checks
// every turn against what was recorded.
func (c *Client) Replay(_ context.Context, path string) (ReplaySummary, error) {
	header, turns, err := eventlog.ReadTurnLog(path)
	if err != nil {
		return ReplaySummary{}, err
	}
	result, err := eventlog.Replay(header, turns)
	if err != nil {
		return ReplaySummary{}, err
	}
	return ReplaySummary{
		RunID:   header.RunID,
		Agent:   header.Agent,
		Turns:   result.Turns,
		Score:   result.Score,
		Outcome: result.Outcome.String(),
		Board:   result.Board,
	}, nil
}

func (c *Client) ensurePlatform(ctx context.Context) (*platform.Platform, error) {
	if c.platform != nil {
		return c.platform, nil
	}
	p := platform.NewPlatform(platform.Config{
		Store:  c.store,
		Scapes: []scape.Scape{scape.WumpusScape{}},
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.platform = p
	return c.platform, nil
}

func (c *Client) writeArtifacts(cfg stats.RunConfig, records []model.RunRecord, createdAt string) (string, error) {
	rows := scoreRows(records)
	scores := make([]int, len(records))
	var turnLogs []string
	for i, record := range records {
		scores[i] = record.Score
		if record.TurnLog != "" {
			turnLogs = append(turnLogs, record.TurnLog)
		}
	}
	summary := stats.Summarize(stats.IntScores(scores))

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config:   cfg,
		Scores:   rows,
		Summary:  stats.RunSummary{Summary: summary},
		TurnLogs: turnLogs,
	})
	if err != nil {
		return "", err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		ID:           cfg.ID,
		Kind:         cfg.Kind,
		Agent:        cfg.Agent,
		Scape:        cfg.Scape,
		Source:       cfg.Source,
		Seed:         cfg.Seed,
		Count:        cfg.Count,
		Mean:         summary.Mean,
		StdDev:       summary.StdDev,
		CreatedAtUTC: createdAt,
	}); err != nil {
		return "", err
	}
	return runDir, nil
}

func scoreRows(records []model.RunRecord) []stats.ScoreRow {
	rows := make([]stats.ScoreRow, len(records))
	for i, record := range records {
		rows[i] = stats.ScoreRow{
			Index:   record.Index,
			RunID:   record.ID,
			World:   record.World,
			Score:   record.Score,
			Turns:   record.Turns,
			Outcome: record.Outcome,
		}
	}
	return rows
}
