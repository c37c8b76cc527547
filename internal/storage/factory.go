package storage

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultSQLitePath = "wumpus.db"
)

// NewStore builds a store by backend name. path is the sqlite file or the
// postgres connection string.
func NewStore(kind, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			path = DefaultDBPath()
		}
		return NewSQLiteStore(path), nil
	case "postgres", "postgresql":
		if path == "" {
			path = os.Getenv("WUMPUS_POSTGRES_DSN")
		}
		return NewPostgresStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// DefaultStoreKind reads WUMPUS_STORE, falling back to memory.
func DefaultStoreKind() string {
	if kind := strings.TrimSpace(os.Getenv("WUMPUS_STORE")); kind != "" {
		return kind
	}
	return "memory"
}

// DefaultDBPath reads WUMPUS_DB_PATH, falling back to wumpus.db.
func DefaultDBPath() string {
	if path := strings.TrimSpace(os.Getenv("WUMPUS_DB_PATH")); path != "" {
		return path
	}
	return defaultSQLitePath
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
