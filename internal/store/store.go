// Package store provides the key/value persistence the wallet core
// delegates to. Values are opaque bytes; every Put replaces the previous
// value atomically.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt marks a stored value that cannot be decoded.
	ErrCorrupt = errors.New("stored value corrupt")
)

// KV is a caller-provided key/value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Path          string // sqlite database file
	RedisAddr     string
	RedisPassword string
	Namespace     string // redis key prefix
}

// Open returns the backend named by opts.Backend.
func Open(opts Options) (KV, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendRedis:
		return NewRedis(opts.RedisAddr, opts.RedisPassword, opts.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
