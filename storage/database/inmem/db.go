package inmemdb

import "sync"

// DB is an in-memory stand-in for the shared event store, used in DEV and
// in tests.
type DB struct {
	mutex sync.RWMutex
	table map[string]*row
	seq   int
}

func Open() (*DB, error) {
	return &DB{table: make(map[string]*row)}, nil
}
