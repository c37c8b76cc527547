package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"wumpus/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the version stamp for newly created records.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	if err := checkVersion(r.VersionedRecord); err != nil {
		return nil, fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeBatch(b model.BatchRecord) ([]byte, error) {
	if err := checkVersion(b.VersionedRecord); err != nil {
		return nil, fmt.Errorf("encode batch %s: %w", b.ID, err)
	}
	return json.Marshal(b)
}

func DecodeBatch(data []byte) (model.BatchRecord, error) {
	var batch model.BatchRecord
	if err := json.Unmarshal(data, &batch); err != nil {
		return model.BatchRecord{}, err
	}
	if err := checkVersion(batch.VersionedRecord); err != nil {
		return model.BatchRecord{}, err
	}
	return batch, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
