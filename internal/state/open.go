package state

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type OpenOptions struct {
	Backend    string
	SQLitePath string
	RedisURL   string
}

// Open connects the configured backend and ensures its schema.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendSQLite:
		store, err = NewSQLite(opts.SQLitePath)
	case BackendRedis:
		store, err = NewRedisURL(opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
