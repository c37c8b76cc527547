package storage

import (
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore keeps records in PostgreSQL. The DSN is any connection string
// lib/pq accepts.
type PostgresStore struct {
	sqlStore
}

func NewPostgresStore(dsn string) *PostgresStore {
	return &PostgresStore{sqlStore{
		dialect: dialect{
			name:      "postgres",
			driver:    "postgres",
			blobType:  "BYTEA",
			numbered:  true,
			requireDS: "postgres connection string is required",
		},
		dsn: dsn,
	}}
}
