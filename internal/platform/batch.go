package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wumpus/internal/engine"
	"wumpus/internal/model"
	"wumpus/internal/scape"
	"wumpus/internal/scapeid"
	"wumpus/internal/stats"
	"wumpus/internal/storage"
)

// AgentFactory builds the agent for world index. seed is the per-world seed
// drawn from the batch seed.
type AgentFactory func(index int, seed int64) (engine.Agent, error)

type BatchConfig struct {
	// BatchID defaults to a fresh UUID.
	BatchID   string
	AgentKind string
	NewAgent  AgentFactory
	// Worlds lists world files. When empty, Count random worlds of
	// Width x Height are drawn instead.
	Worlds []string
	// Source names where Worlds came from, usually the folder.
	Source     string
	Count      int
	Width      int
	Height     int
	Seed       int64
	MaxTurns   int
	Workers    int
	TurnLogDir string
}

// RunBatch evaluates a fresh agent on every world. Episodes run concurrently
// on up to Workers goroutines but each episode is single-threaded. Records
// come back in world order. Any failed episode fails the whole batch and
// nothing is stored.
func (p *Platform) RunBatch(ctx context.Context, cfg BatchConfig) (model.BatchRecord, []model.RunRecord, error) {
	if !p.Started() {
		return model.BatchRecord{}, nil, ErrNotInitialized
	}
	if cfg.NewAgent == nil {
		return model.BatchRecord{}, nil, fmt.Errorf("agent factory is required")
	}
	n := len(cfg.Worlds)
	scapeName := scapeid.WorldFile
	if n == 0 {
		n = cfg.Count
		scapeName = scapeid.Wumpus
	}
	if n <= 0 {
		return model.BatchRecord{}, nil, fmt.Errorf("no worlds to evaluate")
	}

	batchID := cfg.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	createdAt := time.Now().UTC()
	log := p.log.WithFields(logrus.Fields{"batch_id": batchID, "scape": scapeName, "worlds": n})
	log.Info("batch started")

	seedRng := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = seedRng.Int63()
	}

	type job struct {
		idx   int
		scape scape.Scape
	}
	type result struct {
		idx    int
		record model.RunRecord
		err    error
	}

	jobs := make(chan job)
	results := make(chan result, n)

	workerCount := cfg.Workers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > n {
		workerCount = n
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				agent, err := cfg.NewAgent(j.idx, seeds[j.idx])
				if err != nil {
					results <- result{idx: j.idx, err: fmt.Errorf("agent for world %d: %w", j.idx, err)}
					continue
				}
				record, err := p.evaluate(ctx, EvaluationConfig{
					Scape:      j.scape,
					Agent:      agent,
					AgentKind:  cfg.AgentKind,
					Seed:       seeds[j.idx],
					TurnLogDir: cfg.TurnLogDir,
					batchID:    batchID,
					index:      j.idx,
					createdAt:  createdAt,
				})
				closeAgent(agent)
				if err != nil {
					results <- result{idx: j.idx, err: fmt.Errorf("world %d: %w", j.idx, err)}
					continue
				}
				log.WithFields(logrus.Fields{
					"index":   j.idx,
					"score":   record.Score,
					"outcome": record.Outcome,
				}).Debug("world finished")
				results <- result{idx: j.idx, record: record}
			}
		}()
	}

	for i := 0; i < n; i++ {
		var s scape.Scape
		if len(cfg.Worlds) > 0 {
			s = scape.FileScape{Path: cfg.Worlds[i], MaxTurns: cfg.MaxTurns}
		} else {
			s = scape.WumpusScape{Width: cfg.Width, Height: cfg.Height, Seed: seeds[i], MaxTurns: cfg.MaxTurns}
		}
		jobs <- job{idx: i, scape: s}
	}
	close(jobs)

	wg.Wait()
	close(results)

	records := make([]model.RunRecord, n)
	failedIdx := -1
	var failure error
	for res := range results {
		if res.err != nil {
			if failedIdx < 0 || res.idx < failedIdx {
				failedIdx, failure = res.idx, res.err
			}
			continue
		}
		records[res.idx] = res.record
	}
	if failure != nil {
		log.WithError(failure).Warn("batch failed")
		return model.BatchRecord{}, nil, fmt.Errorf("batch %s: %w", batchID, failure)
	}

	scores := make([]float64, n)
	runIDs := make([]string, n)
	for i, record := range records {
		scores[i] = float64(record.Score)
		runIDs[i] = record.ID
	}
	summary := stats.Summarize(scores)
	batch := model.BatchRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              batchID,
		Agent:           cfg.AgentKind,
		Scape:           scapeName,
		Source:          cfg.Source,
		Seed:            cfg.Seed,
		Runs:            summary.Count,
		Mean:            summary.Mean,
		StdDev:          summary.StdDev,
		Min:             summary.Min,
		Max:             summary.Max,
		RunIDs:          runIDs,
		CreatedAtUTC:    createdAt.Format(time.RFC3339Nano),
	}

	for _, record := range records {
		if err := p.store.SaveRun(ctx, record); err != nil {
			return batch, records, fmt.Errorf("save run %s: %w", record.ID, err)
		}
	}
	if err := p.store.SaveBatch(ctx, batch); err != nil {
		return batch, records, fmt.Errorf("save batch %s: %w", batchID, err)
	}

	log.WithFields(logrus.Fields{
		"mean":   summary.Mean,
		"stddev": summary.StdDev,
		"min":    summary.Min,
		"max":    summary.Max,
	}).Info("batch finished")
	return batch, records, nil
}

// closeAgent releases what an agent holds, such as a terminal screen.
func closeAgent(agent engine.Agent) {
	if closer, ok := agent.(interface{ Close() }); ok {
		closer.Close()
	}
}
