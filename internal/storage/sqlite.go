package storage

import (
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	sqlStore
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{sqlStore{
		dialect: dialect{
			name:      "sqlite",
			driver:    "sqlite",
			blobType:  "BLOB",
			requireDS: "sqlite path is required",
		},
		dsn: path,
	}}
}

func (s *SQLiteStore) Path() string {
	return s.dsn
}
