package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"wumpus/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	batches     map[string]model.BatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.batches = make(map[string]model.BatchRecord)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.batches = make(map[string]model.BatchRecord)
	s.initialized = true
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return err
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, errNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, batchID string) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		if batchID != "" && run.BatchID != batchID {
			continue
		}
		out = append(out, run)
	}
	sortRuns(out)
	return out, nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch model.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if batch.ID == "" {
		return errors.New("batch id is required")
	}
	if err := checkVersion(batch.VersionedRecord); err != nil {
		return err
	}
	batch.RunIDs = append([]string(nil), batch.RunIDs...)
	s.batches[batch.ID] = batch
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id string) (model.BatchRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.BatchRecord{}, false, errNotInitialized
	}
	batch, ok := s.batches[id]
	if !ok {
		return model.BatchRecord{}, false, nil
	}
	batch.RunIDs = append([]string(nil), batch.RunIDs...)
	return batch, true, nil
}

func (s *MemoryStore) ListBatches(_ context.Context) ([]model.BatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.BatchRecord, 0, len(s.batches))
	for _, batch := range s.batches {
		batch.RunIDs = append([]string(nil), batch.RunIDs...)
		out = append(out, batch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC < out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var errNotInitialized = errors.New("store is not initialized")

func sortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if a.CreatedAtUTC != b.CreatedAtUTC {
			return a.CreatedAtUTC < b.CreatedAtUTC
		}
		if a.BatchID != b.BatchID {
			return a.BatchID < b.BatchID
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.ID < b.ID
	})
}
