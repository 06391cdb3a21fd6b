// Package migrate moves pre-existing flat-store data into the structured
// backend the first time the latter becomes available in a session.
//
// The transfer is per kind, best-effort, at-least-once: copy the flat
// collection into the structured backend in one bulk write, then clear the
// flat copy. A clear that fails after a successful copy just means the same
// records are copied again next run; bulk puts overwrite by key, so a
// re-copy produces no duplicates.
//
// When neither backend holds any catalog data, a default flavor seed is
// installed. Seeding never overwrites a non-empty store.
package migrate

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/caketrack/caketrack/internal/schema"
	"github.com/caketrack/caketrack/internal/storage"
	"github.com/caketrack/caketrack/internal/storage/flatfile"
)

// Options configures one migration run.
type Options struct {
	// Structured is the destination backend. Required, must be open.
	Structured storage.Store

	// Flat is the source backend. Required; its collections are cleared
	// after a successful copy.
	Flat *flatfile.Store

	// SeedFile optionally overrides the compiled-in default catalog.
	SeedFile string

	// Logger for per-kind progress. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// Result reports what one run did.
type Result struct {
	// Migrated maps each kind to the number of records copied into the
	// structured backend.
	Migrated map[schema.Kind]int

	// ClearFailed lists kinds whose flat copy could not be cleared after a
	// successful copy. Those kinds will be re-copied on the next run.
	ClearFailed []schema.Kind

	// Seeded is the number of default catalog entries installed.
	Seeded int
}

// Run migrates every record kind independently, then seeds the catalog if
// it is still empty. A failing kind is logged and skipped; Run returns an
// error only if no kind could be processed at all.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[migrate] ", log.LstdFlags)
	}

	result := &Result{Migrated: make(map[schema.Kind]int)}

	var failed int
	for _, kind := range schema.Kinds() {
		n, cleared, err := migrateKind(ctx, opts, kind)
		if err != nil {
			logger.Printf("WARNING: failed to migrate %s: %v", kind, err)
			failed++
			continue
		}
		if n > 0 {
			result.Migrated[kind] = n
			logger.Printf("Migrated %d %s records to structured store", n, kind)
		}
		if n > 0 && !cleared {
			result.ClearFailed = append(result.ClearFailed, kind)
			logger.Printf("WARNING: could not clear flat %s copy; will re-copy next run", kind)
		}
	}

	if failed == len(schema.Kinds()) {
		return result, fmt.Errorf("migration failed for every record kind")
	}

	seeded, err := seedCatalog(ctx, opts, logger)
	if err != nil {
		logger.Printf("WARNING: failed to seed catalog: %v", err)
	}
	result.Seeded = seeded

	return result, nil
}

// migrateKind copies one kind from flat to structured if the structured
// side is empty and the flat side is not. Returns the count copied and
// whether the flat copy was cleared.
func migrateKind(ctx context.Context, opts Options, kind schema.Kind) (int, bool, error) {
	existing, err := opts.Structured.GetAll(ctx, kind)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read structured %s: %w", kind, err)
	}
	if len(existing) > 0 {
		// Structured side is authoritative once it holds data.
		return 0, false, nil
	}

	pending, err := opts.Flat.GetAll(ctx, kind)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read flat %s: %w", kind, err)
	}
	if len(pending) == 0 {
		return 0, false, nil
	}

	if err := opts.Structured.BulkPut(ctx, kind, pending); err != nil {
		return 0, false, fmt.Errorf("failed to copy %s: %w", kind, err)
	}

	// Copy-then-clear is not atomic across the two stores. A failed clear
	// is reported, not fatal: the next run re-copies idempotently.
	if err := opts.Flat.Clear(ctx, kind); err != nil {
		return len(pending), false, nil
	}

	return len(pending), true, nil
}

// seedCatalog installs the default flavors when the structured store holds
// none. It never overwrites a non-empty catalog.
func seedCatalog(ctx context.Context, opts Options, logger *log.Logger) (int, error) {
	existing, err := opts.Structured.GetAll(ctx, schema.KindFlavors)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	flavors := DefaultFlavors()
	if opts.SeedFile != "" {
		loaded, err := LoadSeedFile(opts.SeedFile)
		if err != nil {
			logger.Printf("WARNING: ignoring seed file %s: %v", opts.SeedFile, err)
		} else if len(loaded) > 0 {
			flavors = loaded
		}
	}

	recs := make([]schema.Record, 0, len(flavors))
	for _, f := range flavors {
		recs = append(recs, f)
	}
	if err := opts.Structured.BulkPut(ctx, schema.KindFlavors, recs); err != nil {
		return 0, fmt.Errorf("failed to install seed catalog: %w", err)
	}

	logger.Printf("Seeded catalog with %d flavors", len(recs))
	return len(recs), nil
}
