package storage

import (
	"context"

	"github.com/caketrack/caketrack/internal/schema"
)

// Store is the persistence contract shared by both backends and the Facade.
//
// All operations are safe for an empty store: GetAll on a kind with no
// records returns an empty sequence, Delete of an absent key is a no-op
// success. Result ordering of GetAll is unspecified; callers sort.
//
// Put and BulkPut have upsert semantics: a record whose key already exists
// overwrites the stored copy. BulkPut applies all records in one atomic unit
// of work on the structured backend and one collection rewrite on the flat
// backend.
//
// OrdersOn and OrdersWithStatus are the two indexed lookups. Orders without
// a delivery date never appear in any OrdersOn result.
type Store interface {
	GetAll(ctx context.Context, kind schema.Kind) ([]schema.Record, error)
	Put(ctx context.Context, kind schema.Kind, rec schema.Record) error
	BulkPut(ctx context.Context, kind schema.Kind, recs []schema.Record) error
	Delete(ctx context.Context, kind schema.Kind, key string) error

	OrdersOn(ctx context.Context, date string) ([]*schema.Order, error)
	OrdersWithStatus(ctx context.Context, status string) ([]*schema.Order, error)
}
