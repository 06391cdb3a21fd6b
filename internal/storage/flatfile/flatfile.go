// Package flatfile implements the degraded storage backend: one JSON array
// file per record kind, rewritten whole on every mutation.
//
// Used when the structured engine cannot be opened. Constructed with an
// empty directory it becomes a storage-less no-op for contexts with no
// persistent storage at all.
//
// Every operation reads the whole collection, mutates a copy, and writes the
// whole collection back, so concurrent writes to the same kind from the same
// context lose updates; callers await each write before issuing the next.
// A collection that fails to parse is treated as empty rather than failing:
// availability over strictness on this path.
package flatfile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/caketrack/caketrack/internal/schema"
	"github.com/caketrack/caketrack/internal/storage"
)

// Store is the flat backend. It implements storage.Store.
type Store struct {
	dir    string
	logger *log.Logger
}

// New creates a flat store over the given data directory. An empty dir
// yields a storage-less store: reads return empty, writes succeed and
// persist nothing.
//
// If logger is nil, a default logger writing to stderr is used.
func New(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[flatfile] ", log.LstdFlags)
	}
	return &Store{dir: dir, logger: logger}
}

// path returns the collection file for a kind.
func (s *Store) path(kind schema.Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

// load reads a whole collection. Missing file means no data; a payload that
// fails to parse is logged and degraded to an empty collection.
func (s *Store) load(kind schema.Kind) ([]schema.Record, error) {
	if !schema.KnownKind(kind) {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownKind, kind)
	}
	if s.dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioErr("read", kind, err)
	}

	recs, err := schema.DecodeList(kind, data)
	if err != nil {
		s.logger.Printf("WARNING: %v, treating %s as empty",
			fmt.Errorf("%w: %v", storage.ErrCorruptPayload, err), kind)
		return nil, nil
	}
	return recs, nil
}

// save rewrites a whole collection atomically (temp file + rename).
func (s *Store) save(kind schema.Kind, recs []schema.Record) error {
	if s.dir == "" {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return ioErr("save", kind, err)
	}

	data, err := schema.EncodeList(recs)
	if err != nil {
		return ioErr("save", kind, err)
	}

	path := s.path(kind)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return ioErr("save", kind, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return ioErr("save", kind, err)
	}

	return nil
}

// GetAll implements storage.Store.
func (s *Store) GetAll(ctx context.Context, kind schema.Kind) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load(kind)
}

// Put implements storage.Store: linear scan by key, replace or append, then
// rewrite the collection.
func (s *Store) Put(ctx context.Context, kind schema.Kind, rec schema.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := schema.ValidateRecord(kind, rec); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	recs, err := s.load(kind)
	if err != nil {
		return err
	}

	out := make([]schema.Record, 0, len(recs)+1)
	replaced := false
	for _, existing := range recs {
		if existing.Key() == rec.Key() {
			out = append(out, rec)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, rec)
	}

	return s.save(kind, out)
}

// BulkPut implements storage.Store: merge by key, one rewrite.
func (s *Store) BulkPut(ctx context.Context, kind schema.Kind, recs []schema.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := schema.ValidateRecord(kind, rec); err != nil {
			return fmt.Errorf("bulk put: %w", err)
		}
	}
	if len(recs) == 0 {
		return nil
	}

	existing, err := s.load(kind)
	if err != nil {
		return err
	}

	incoming := make(map[string]schema.Record, len(recs))
	order := make([]string, 0, len(recs))
	for _, rec := range recs {
		if _, ok := incoming[rec.Key()]; !ok {
			order = append(order, rec.Key())
		}
		incoming[rec.Key()] = rec
	}

	out := make([]schema.Record, 0, len(existing)+len(recs))
	for _, rec := range existing {
		if repl, ok := incoming[rec.Key()]; ok {
			out = append(out, repl)
			delete(incoming, rec.Key())
			continue
		}
		out = append(out, rec)
	}
	for _, key := range order {
		if rec, ok := incoming[key]; ok {
			out = append(out, rec)
		}
	}

	return s.save(kind, out)
}

// Delete implements storage.Store. Deleting an absent key is a no-op
// success and skips the rewrite.
func (s *Store) Delete(ctx context.Context, kind schema.Kind, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recs, err := s.load(kind)
	if err != nil {
		return err
	}

	out := make([]schema.Record, 0, len(recs))
	found := false
	for _, rec := range recs {
		if rec.Key() == key {
			found = true
			continue
		}
		out = append(out, rec)
	}
	if !found {
		return nil
	}

	return s.save(kind, out)
}

// Clear removes every record of a kind. Used by the migration runner after
// a successful copy into the structured backend.
func (s *Store) Clear(ctx context.Context, kind schema.Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !schema.KnownKind(kind) {
		return fmt.Errorf("clear: %w: %q", storage.ErrUnknownKind, kind)
	}
	if s.dir == "" {
		return nil
	}

	if err := os.Remove(s.path(kind)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ioErr("clear", kind, err)
	}
	return nil
}

// ioErr wraps a filesystem fault as a domain transaction failure, the same
// kind the structured backend reports for an aborted unit of work.
func ioErr(op string, kind schema.Kind, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, kind, storage.ErrTransactionFailed, err)
}

// OrdersOn implements storage.Store with a linear filter; the flat backend
// has no indexes. An empty date matches nothing.
func (s *Store) OrdersOn(ctx context.Context, date string) ([]*schema.Order, error) {
	if date == "" {
		return nil, nil
	}
	return s.filterOrders(ctx, func(o *schema.Order) bool {
		return o.DeliveryDate == date
	})
}

// OrdersWithStatus implements storage.Store with a linear filter.
func (s *Store) OrdersWithStatus(ctx context.Context, status string) ([]*schema.Order, error) {
	return s.filterOrders(ctx, func(o *schema.Order) bool {
		return o.Status == status
	})
}

func (s *Store) filterOrders(ctx context.Context, keep func(*schema.Order) bool) ([]*schema.Order, error) {
	recs, err := s.GetAll(ctx, schema.KindOrders)
	if err != nil {
		return nil, err
	}

	var out []*schema.Order
	for _, rec := range recs {
		o := rec.(*schema.Order)
		if keep(o) {
			out = append(out, o)
		}
	}
	return out, nil
}
