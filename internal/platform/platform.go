package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wumpus/internal/engine"
	"wumpus/internal/eventlog"
	"wumpus/internal/model"
	"wumpus/internal/scape"
	"wumpus/internal/storage"
	"wumpus/internal/world"
	"wumpus/pkg/logger"
)

var ErrNotInitialized = errors.New("platform is not initialized")

type Config struct {
	Store storage.Store
	// Scapes are registered on every Init.
	Scapes []scape.Scape
}

type EvaluationConfig struct {
	// RunID defaults to a fresh UUID.
	RunID string
	// Scape wins over ScapeName when both are set.
	Scape     scape.Scape
	ScapeName string
	Agent     engine.Agent
	AgentKind string
	Seed      int64
	// TurnLogDir enables a compressed turn log for the run.
	TurnLogDir string
	// Observer sees every resolved turn alongside the turn log.
	Observer scape.Observer

	batchID   string
	index     int
	createdAt time.Time
}

// Platform owns the result store and the scape registry.
type Platform struct {
	store storage.Store

	mu      sync.RWMutex
	scapes  map[string]scape.Scape
	started bool

	config Config
	log    *logrus.Entry
}

func NewPlatform(cfg Config) *Platform {
	return &Platform{
		store:  cfg.Store,
		scapes: make(map[string]scape.Scape),
		config: cfg,
		log:    logger.Log.WithField("component", "platform"),
	}
}

func (p *Platform) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}

	scapes := make(map[string]scape.Scape, len(p.config.Scapes))
	for i, s := range p.config.Scapes {
		if s == nil {
			return fmt.Errorf("scape is nil at index %d", i)
		}
		name := s.Name()
		if name == "" {
			return fmt.Errorf("scape name is required at index %d", i)
		}
		if _, exists := scapes[name]; exists {
			return fmt.Errorf("duplicate scape: %s", name)
		}
		scapes[name] = s
	}
	p.scapes = scapes
	p.started = true
	return nil
}

// Reset drops every stored result when the store supports it and starts over.
func (p *Platform) Reset(ctx context.Context) error {
	p.Stop()
	if resetter, ok := p.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return p.Init(ctx)
}

func (p *Platform) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	p.scapes = make(map[string]scape.Scape)
}

func (p *Platform) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Platform) Store() storage.Store {
	return p.store
}

func (p *Platform) RegisterScape(s scape.Scape) error {
	if s == nil {
		return fmt.Errorf("scape is nil")
	}

	name := s.Name()
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return ErrNotInitialized
	}
	p.scapes[name] = s
	return nil
}

func (p *Platform) GetScape(name string) (scape.Scape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[name]
	return s, ok
}

func (p *Platform) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate plays one episode and persists its record. A failed episode is
// returned with its partial record and is not stored.
func (p *Platform) Evaluate(ctx context.Context, cfg EvaluationConfig) (model.RunRecord, error) {
	if !p.Started() {
		return model.RunRecord{}, ErrNotInitialized
	}
	record, err := p.evaluate(ctx, cfg)
	if err != nil {
		return record, err
	}
	if err := p.store.SaveRun(ctx, record); err != nil {
		return record, fmt.Errorf("save run %s: %w", record.ID, err)
	}
	p.log.WithFields(logrus.Fields{
		"run_id":  record.ID,
		"scape":   record.Scape,
		"agent":   record.Agent,
		"outcome": record.Outcome,
		"score":   record.Score,
		"turns":   record.Turns,
	}).Info("run finished")
	return record, nil
}

func (p *Platform) evaluate(ctx context.Context, cfg EvaluationConfig) (model.RunRecord, error) {
	s, err := p.resolveScape(cfg)
	if err != nil {
		return model.RunRecord{}, err
	}
	if cfg.Agent == nil {
		return model.RunRecord{}, fmt.Errorf("agent is required")
	}

	createdAt := cfg.createdAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	record := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		BatchID:         cfg.batchID,
		Index:           cfg.index,
		Scape:           s.Name(),
		Agent:           cfg.AgentKind,
		Seed:            cfg.Seed,
		CreatedAtUTC:    createdAt.UTC().Format(time.RFC3339Nano),
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	var (
		layout     world.Layout
		haveLayout bool
		maxTurns   int
	)
	if ls, ok := s.(scape.LayoutScape); ok {
		layout, err = ls.Layout()
		if err != nil {
			return record, fmt.Errorf("run %s: %w", record.ID, err)
		}
		haveLayout = true
		maxTurns = ls.TurnCap()
		record.Width = layout.Width
		record.Height = layout.Height
	}

	var turnLog *eventlog.TurnLog
	observable, canObserve := s.(scape.ObservableScape)
	if cfg.TurnLogDir != "" {
		if !haveLayout || !canObserve {
			return record, fmt.Errorf("scape %s cannot record turn logs", s.Name())
		}
		turnLog, err = eventlog.Create(cfg.TurnLogDir, eventlog.Header{
			RunID:    record.ID,
			Agent:    cfg.AgentKind,
			MaxTurns: maxTurns,
			Layout:   layout,
		})
		if err != nil {
			return record, fmt.Errorf("open turn log: %w", err)
		}
		record.TurnLog = turnLog.Path()
	}

	observer := cfg.Observer
	if turnLog != nil {
		observer = chainObservers(turnLog.Observe, cfg.Observer)
	}
	if observer != nil && !canObserve {
		return record, fmt.Errorf("scape %s cannot be observed", s.Name())
	}

	var trace scape.Trace
	if observer != nil {
		_, trace, err = observable.EvaluateWithObserver(ctx, cfg.Agent, observer)
	} else {
		_, trace, err = s.Evaluate(ctx, cfg.Agent)
	}
	if turnLog != nil {
		if closeErr := turnLog.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close turn log: %w", closeErr)
		}
	}
	applyTrace(&record, trace)
	if err != nil {
		return record, fmt.Errorf("run %s on %s: %w", record.ID, s.Name(), err)
	}
	return record, nil
}

func (p *Platform) resolveScape(cfg EvaluationConfig) (scape.Scape, error) {
	if cfg.Scape != nil {
		return cfg.Scape, nil
	}
	if cfg.ScapeName == "" {
		return nil, fmt.Errorf("scape name is required")
	}
	s, ok := p.GetScape(cfg.ScapeName)
	if !ok {
		return nil, fmt.Errorf("scape not found: %s", cfg.ScapeName)
	}
	return s, nil
}

func chainObservers(observers ...scape.Observer) scape.Observer {
	return func(rec engine.TurnRecord) {
		for _, fn := range observers {
			if fn != nil {
				fn(rec)
			}
		}
	}
}

func applyTrace(record *model.RunRecord, trace scape.Trace) {
	if trace == nil {
		return
	}
	record.Score, _ = trace["score"].(int)
	record.Turns, _ = trace["turns"].(int)
	record.Outcome, _ = trace["outcome"].(string)
	record.Hazard, _ = trace["hazard"].(string)
	record.HoldsGold, _ = trace["holds_gold"].(bool)
	record.HasArrow, _ = trace["has_arrow"].(bool)
	record.WumpusKilled, _ = trace["wumpus_killed"].(bool)
	record.World, _ = trace["world"].(string)
}
