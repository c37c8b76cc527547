package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"wumpus/internal/agent"
	"wumpus/internal/scapeid"
	"wumpus/internal/stats"
	"wumpus/internal/storage"
	"wumpus/internal/transport/ws"
	"wumpus/pkg/logger"
	wumpusapi "wumpus/pkg/wumpus"
)

func main() {
	logger.Init()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "play":
		return runPlay(ctx, args[1:])
	case "batch":
		return runBatch(ctx, args[1:])
	case "generate":
		return runGenerate(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "batches":
		return runBatches(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "bot":
		return runBot(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var opts runOptions
	bindRunFlags(fs, &opts, scapeid.AgentRandom)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.resolve(setFlagNames(fs)); err != nil {
		return err
	}
	return playOnce(ctx, opts)
}

// runPlay is run with the terminal agent: a person drives the explorer with
// the keyboard.
func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var opts runOptions
	bindRunFlags(fs, &opts, scapeid.AgentTerminal)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.resolve(setFlagNames(fs)); err != nil {
		return err
	}
	return playOnce(ctx, opts)
}

func playOnce(ctx context.Context, opts runOptions) error {
	script, err := opts.parseScript()
	if err != nil {
		return err
	}
	client, err := newClient(opts.store, opts.dbPath, opts.artifactsDir, "")
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Run(ctx, wumpusapi.RunRequest{
		AgentKind:  opts.agent,
		Script:     script,
		Seed:       opts.seed,
		World:      opts.world,
		Width:      opts.width,
		Height:     opts.height,
		MaxTurns:   opts.maxTurns,
		TurnLogDir: opts.turnLogDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s score=%s turns=%d outcome=%s", summary.RunID, humanize.Comma(int64(summary.Score)), summary.Turns, summary.Outcome)
	if summary.Hazard != "" {
		fmt.Printf(" hazard=%s", summary.Hazard)
	}
	fmt.Printf(" gold=%t\n", summary.HoldsGold)
	if summary.TurnLog != "" {
		printTurnLog(summary.TurnLog)
	}
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)

	if opts.output != "" {
		report := stats.Summary{Count: 1, Mean: float64(summary.Score), Min: float64(summary.Score), Max: float64(summary.Score)}
		if err := stats.WriteScoreReport(opts.output, report, false); err != nil {
			return err
		}
	}
	return nil
}

func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	var opts runOptions
	bindRunFlags(fs, &opts, scapeid.AgentRandom)
	bindBatchFlags(fs, &opts)
	jsonOut := fs.Bool("json", false, "emit the batch summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.resolve(setFlagNames(fs)); err != nil {
		return err
	}
	if opts.worlds == "" && opts.count <= 0 {
		return errors.New("count must be > 0 when --worlds is empty")
	}
	script, err := opts.parseScript()
	if err != nil {
		return err
	}

	client, err := newClient(opts.store, opts.dbPath, opts.artifactsDir, "")
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Batch(ctx, wumpusapi.BatchRequest{
		AgentKind:  opts.agent,
		Script:     script,
		Worlds:     opts.worlds,
		Count:      opts.count,
		Width:      opts.width,
		Height:     opts.height,
		Seed:       opts.seed,
		MaxTurns:   opts.maxTurns,
		Workers:    opts.workers,
		TurnLogDir: opts.turnLogDir,
	})
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := stats.WriteScoreReport(opts.output, summary.Summary, true); err != nil {
			return err
		}
	}

	if *jsonOut {
		return printJSON(struct {
			BatchID      string         `json:"batch_id"`
			ArtifactsDir string         `json:"artifacts_dir"`
			Summary      stats.Summary  `json:"summary"`
			Outcomes     map[string]int `json:"outcomes"`
		}{summary.BatchID, summary.ArtifactsDir, summary.Summary, summary.Outcomes})
	}

	fmt.Printf("batch completed batch_id=%s worlds=%s mean=%s stdev=%s min=%s max=%s\n",
		summary.BatchID,
		humanize.Comma(int64(summary.Summary.Count)),
		stats.FormatScore(summary.Summary.Mean),
		stats.FormatScore(summary.Summary.StdDev),
		stats.FormatScore(summary.Summary.Min),
		stats.FormatScore(summary.Summary.Max),
	)
	outcomes := make([]string, 0, len(summary.Outcomes))
	for name := range summary.Outcomes {
		outcomes = append(outcomes, name)
	}
	sort.Strings(outcomes)
	for _, name := range outcomes {
		fmt.Printf("outcome %s=%d\n", name, summary.Outcomes[name])
	}
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	outDir := fs.String("out", "worlds", "output folder")
	base := fs.String("base", "world", "file name prefix")
	count := fs.Int("count", 10, "number of worlds")
	width := fs.Int("width", 0, "world width (0 uses 4)")
	height := fs.Int("height", 0, "world height (0 uses 4)")
	seed := fs.Int64("seed", 0, "rng seed (0 uses the clock)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count <= 0 {
		return errors.New("count must be > 0")
	}
	if *seed == 0 {
		*seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	}

	client, err := newClient("memory", "", "", "")
	if err != nil {
		return err
	}
	defer client.Close()

	files, err := client.Generate(ctx, wumpusapi.GenerateRequest{
		Dir:    *outDir,
		Base:   *base,
		Count:  *count,
		Width:  *width,
		Height: *height,
		Seed:   *seed,
	})
	if err != nil {
		return err
	}
	fmt.Printf("generated worlds=%d dir=%s seed=%d\n", len(files), *outDir, *seed)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	artifactsDir := fs.String("artifacts-dir", "artifacts", "run artifacts directory")
	batchID := fs.String("batch", "", "list the stored runs of this batch instead of the run index")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", "", "sqlite path or postgres DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath, *artifactsDir, "")
	if err != nil {
		return err
	}
	defer client.Close()

	if *batchID != "" {
		records, err := client.StoredRuns(ctx, *batchID)
		if err != nil {
			return err
		}
		if len(records) > *limit {
			records = records[:*limit]
		}
		if *jsonOut {
			return printJSON(records)
		}
		if len(records) == 0 {
			fmt.Println("no runs found")
			return nil
		}
		for _, r := range records {
			fmt.Printf("index=%d run_id=%s world=%s score=%d turns=%d outcome=%s\n", r.Index, r.ID, r.World, r.Score, r.Turns, r.Outcome)
		}
		return nil
	}

	items, err := client.Runs(ctx, wumpusapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			ID           string  `json:"id"`
			Kind         string  `json:"kind"`
			CreatedAtUTC string  `json:"created_at_utc"`
			Agent        string  `json:"agent"`
			Scape        string  `json:"scape"`
			Seed         int64   `json:"seed"`
			Count        int     `json:"count"`
			Mean         float64 `json:"mean"`
			StdDev       float64 `json:"std_dev"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem{item.ID, item.Kind, item.CreatedAtUTC, item.Agent, item.Scape, item.Seed, item.Count, item.Mean, item.StdDev})
		}
		return printJSON(out)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run_id=%s kind=%s created=%s agent=%s scape=%s seed=%d count=%d mean=%s stdev=%s\n",
			item.ID,
			item.Kind,
			ago(item.CreatedAtUTC),
			item.Agent,
			item.Scape,
			item.Seed,
			item.Count,
			stats.FormatScore(item.Mean),
			stats.FormatScore(item.StdDev),
		)
	}
	return nil
}

func runBatches(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batches", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max batches to list")
	jsonOut := fs.Bool("json", false, "emit batches as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", "", "sqlite path or postgres DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, "", "")
	if err != nil {
		return err
	}
	defer client.Close()

	batches, err := client.Batches(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(batches)
	}
	if len(batches) == 0 {
		fmt.Println("no batches found")
		return nil
	}
	for _, b := range batches {
		fmt.Printf("batch_id=%s created=%s agent=%s scape=%s runs=%d mean=%s stdev=%s\n",
			b.ID, ago(b.CreatedAtUTC), b.Agent, b.Scape, b.Runs, stats.FormatScore(b.Mean), stats.FormatScore(b.StdDev))
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run or batch id to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "exports", "export output directory")
	artifactsDir := fs.String("artifacts-dir", "artifacts", "run artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "", *artifactsDir, *outDir)
	if err != nil {
		return err
	}
	defer client.Close()

	exported, err := client.Export(ctx, wumpusapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s kind=%s agent=%s count=%d mean=%s stdev=%s\n",
		exported.RunID,
		exported.Directory,
		exported.Kind,
		exported.Agent,
		exported.Count,
		stats.FormatScore(exported.Mean),
		stats.FormatScore(exported.StdDev),
	)
	return nil
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	logPath := fs.String("log", "", "turn log to verify")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *logPath == "" && fs.NArg() > 0 {
		*logPath = fs.Arg(0)
	}
	if *logPath == "" {
		return errors.New("replay requires --log")
	}

	client, err := newClient("memory", "", "", "")
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Replay(ctx, *logPath)
	if err != nil {
		return err
	}
	fmt.Printf("replay ok run_id=%s turns=%d score=%d outcome=%s\n", summary.RunID, summary.Turns, summary.Score, summary.Outcome)
	fmt.Print(summary.Board)
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address")
	path := fs.String("path", "/v1/ws", "websocket path")
	world := fs.String("world", "", "world file every episode is played on")
	width := fs.Int("width", 0, "random world width (0 uses 4)")
	height := fs.Int("height", 0, "random world height (0 uses 4)")
	seed := fs.Int64("seed", 1, "seed of the first random world")
	maxTurns := fs.Int("max-turns", 0, "turn cap per episode (0 uses 1000)")
	turnLogDir := fs.String("turn-log-dir", "", "write compressed turn logs here")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	dbPath := fs.String("db-path", "", "sqlite path or postgres DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, "", "")
	if err != nil {
		return err
	}
	defer client.Close()
	p, err := client.Platform(ctx)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(*path, ws.NewServer(p, ws.ServerOptions{
		World:      *world,
		Width:      *width,
		Height:     *height,
		Seed:       *seed,
		MaxTurns:   *maxTurns,
		TurnLogDir: *turnLogDir,
	}))
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Log.WithField("addr", *addr).WithField("path", *path).Info("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runBot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	url := fs.String("url", "ws://localhost:8080/v1/ws", "server websocket url")
	kind := fs.String("agent", scapeid.AgentRandom, "local agent kind: random|manual|scripted|terminal")
	script := fs.String("script", "", "comma separated actions for the scripted agent")
	seed := fs.Int64("seed", 1, "rng seed for the random agent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := runOptions{script: *script}
	actions, err := opts.parseScript()
	if err != nil {
		return err
	}
	a, err := agent.New(*kind, agent.Options{Seed: *seed, Script: actions})
	if err != nil {
		return err
	}
	if closer, ok := a.(interface{ Close() }); ok {
		defer closer.Close()
	}

	target := *url
	if !strings.Contains(target, "agent=") {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "agent=" + scapeid.NormalizeAgent(*kind)
	}
	conn, err := ws.Dial(ctx, target)
	if err != nil {
		return err
	}
	defer conn.Close()

	result, err := ws.Play(ctx, conn, a)
	if err != nil {
		return err
	}
	fmt.Printf("episode completed run_id=%s score=%d turns=%d outcome=%s\n", result.RunID, result.Score, result.Turns, result.Outcome)
	return nil
}

func newClient(storeKind, dbPath, artifactsDir, exportsDir string) (*wumpusapi.Client, error) {
	return wumpusapi.New(wumpusapi.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
}

func printTurnLog(path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("turn_log=%s\n", path)
		return
	}
	fmt.Printf("turn_log=%s size=%s\n", path, humanize.Bytes(uint64(info.Size())))
}

func ago(createdAtUTC string) string {
	t, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(t)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: wumpusctl <run|play|batch|generate|runs|batches|export|replay|serve|bot> [flags]", msg)
}
