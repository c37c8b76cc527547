package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord is the persisted result of one episode.
type RunRecord struct {
	VersionedRecord
	ID      string `json:"id"`
	BatchID string `json:"batch_id,omitempty"`
	// Index orders runs inside a batch.
	Index int    `json:"index"`
	Scape string `json:"scape"`
	// World is the world file path, or random:<seed> for a generated world.
	World        string `json:"world,omitempty"`
	Agent        string `json:"agent"`
	Seed         int64  `json:"seed"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Score        int    `json:"score"`
	Turns        int    `json:"turns"`
	Outcome      string `json:"outcome"`
	Hazard       string `json:"hazard,omitempty"`
	HoldsGold    bool   `json:"holds_gold"`
	HasArrow     bool   `json:"has_arrow"`
	WumpusKilled bool   `json:"wumpus_killed"`
	TurnLog      string `json:"turn_log,omitempty"`
	CreatedAtUTC string `json:"created_at_utc"`
}

// BatchRecord summarizes the scores of a batch of runs.
type BatchRecord struct {
	VersionedRecord
	ID    string `json:"id"`
	Agent string `json:"agent"`
	Scape string `json:"scape"`
	// Source is the world folder, or empty for seeded random worlds.
	Source       string   `json:"source,omitempty"`
	Seed         int64    `json:"seed"`
	Runs         int      `json:"runs"`
	Mean         float64  `json:"mean"`
	StdDev       float64  `json:"std_dev"`
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	RunIDs       []string `json:"run_ids"`
	CreatedAtUTC string   `json:"created_at_utc"`
}
