// Package db defines the storage contract the Redis driver fulfils.
// Repositories declare their own narrow interfaces over these methods.
package db

import (
	"context"
	"time"
)

// Store is everything the Redis driver offers. Only the composition root
// holds it; repositories receive it through their own consumer interfaces.
type Store interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()

	// Hashes. HSetMulti pipelines one HSET per item.
	HSetMulti(ctx context.Context, items []HashSetItem) error

	// Strings and counters. GetMulti returns nil for missing keys.
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrByWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)

	// FT indexes.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// HashSetItem is one hash written by HSetMulti.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}
