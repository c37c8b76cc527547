package main

import (
	"flag"
	"os"
	"strings"

	"wumpus/internal/agent"
	"wumpus/internal/config"
	"wumpus/internal/engine"
	"wumpus/internal/storage"
	"wumpus/pkg/logger"
)

// runOptions collects the flags shared by run, batch and play. Values from
// --config fill in whatever was not set explicitly on the command line.
type runOptions struct {
	configPath string

	agent        string
	script       string
	seed         int64
	world        string
	worlds       string
	width        int
	height       int
	count        int
	workers      int
	maxTurns     int
	store        string
	dbPath       string
	artifactsDir string
	turnLogDir   string
	output       string
	logLevel     string
	logFormat    string
}

func bindRunFlags(fs *flag.FlagSet, o *runOptions, defaultAgent string) {
	fs.StringVar(&o.configPath, "config", "", "optional YAML config path")
	fs.StringVar(&o.agent, "agent", defaultAgent, "agent kind: random|manual|scripted|terminal")
	fs.StringVar(&o.script, "script", "", "comma separated actions for the scripted agent")
	fs.Int64Var(&o.seed, "seed", 1, "rng seed for worlds and the random agent")
	fs.StringVar(&o.world, "world", "", "world file to play")
	fs.IntVar(&o.width, "width", 0, "random world width (0 uses 4)")
	fs.IntVar(&o.height, "height", 0, "random world height (0 uses 4)")
	fs.IntVar(&o.maxTurns, "max-turns", 0, "turn cap per run (0 uses 1000)")
	fs.StringVar(&o.store, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite|postgres")
	fs.StringVar(&o.dbPath, "db-path", "", "sqlite path or postgres DSN")
	fs.StringVar(&o.artifactsDir, "artifacts-dir", "artifacts", "run artifacts directory")
	fs.StringVar(&o.turnLogDir, "turn-log-dir", "", "write compressed turn logs here")
	fs.StringVar(&o.output, "output", "", "write a SCORE/STDEV report to this file")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text|json (overrides LOG_FORMAT)")
}

func bindBatchFlags(fs *flag.FlagSet, o *runOptions) {
	fs.StringVar(&o.worlds, "worlds", "", "folder of world files (random worlds when empty)")
	fs.IntVar(&o.count, "count", 10, "random world count when --worlds is empty")
	fs.IntVar(&o.workers, "workers", 4, "worker count")
}

func setFlagNames(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// resolve loads --config, lets it fill unset flags, then applies logging.
func (o *runOptions) resolve(set map[string]bool) error {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		o.applyConfig(cfg, set)
	}
	if o.logLevel != "" || o.logFormat != "" {
		logger.Configure(firstNonEmpty(o.logLevel, os.Getenv("LOG_LEVEL"), "info"), firstNonEmpty(o.logFormat, os.Getenv("LOG_FORMAT")))
	}
	return nil
}

func (o *runOptions) applyConfig(cfg config.File, set map[string]bool) {
	setString := func(name string, dst *string, v string) {
		if !set[name] && v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int, v int) {
		if !set[name] && v != 0 {
			*dst = v
		}
	}

	setString("agent", &o.agent, cfg.Agent)
	if !set["script"] && len(cfg.Script) > 0 {
		o.script = strings.Join(cfg.Script, ",")
	}
	if !set["seed"] && cfg.Seed != nil {
		o.seed = *cfg.Seed
	}
	setString("world", &o.world, cfg.World)
	setString("worlds", &o.worlds, cfg.Worlds)
	setInt("width", &o.width, cfg.Width)
	setInt("height", &o.height, cfg.Height)
	setInt("count", &o.count, cfg.Count)
	setInt("workers", &o.workers, cfg.Workers)
	setInt("max-turns", &o.maxTurns, cfg.MaxTurns)
	setString("store", &o.store, cfg.Store)
	setString("db-path", &o.dbPath, cfg.DBPath)
	setString("artifacts-dir", &o.artifactsDir, cfg.ArtifactsDir)
	setString("turn-log-dir", &o.turnLogDir, cfg.TurnLogDir)
	setString("output", &o.output, cfg.Output)
	setString("log-level", &o.logLevel, cfg.LogLevel)
	setString("log-format", &o.logFormat, cfg.LogFormat)
}

func (o *runOptions) parseScript() ([]engine.Action, error) {
	if strings.TrimSpace(o.script) == "" {
		return nil, nil
	}
	return agent.ParseScript(strings.Split(o.script, ","))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
