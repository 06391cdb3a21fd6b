package main

import (
	"context"
	"testing"

	"github.com/caketrack/caketrack/internal/config"
	"github.com/caketrack/caketrack/internal/schema"
	"github.com/caketrack/caketrack/internal/storage/flatfile"
)

// TestOpenApp_CapturesMigrationReport tests that the result of the
// post-open migration hook is kept on the app, so the migrate command
// reports the run that actually moved records.
func TestOpenApp_CapturesMigrationReport(t *testing.T) {
	dir := t.TempDir()
	flagDataDir = dir
	flagEngine = config.EngineAuto
	t.Cleanup(func() { flagDataDir = ""; flagEngine = "" })

	// Pre-existing flat data that the first structured open should move.
	flat := flatfile.New(dir, nil)
	if err := flat.Put(context.Background(), schema.KindFlavors, &schema.Flavor{Name: "Pistachio", PricePerKg: 72}); err != nil {
		t.Fatalf("Failed to seed flat store: %v", err)
	}

	a, err := openApp()
	if err != nil {
		t.Fatalf("openApp() failed: %v", err)
	}
	defer a.Close()

	if _, err := a.store.GetAll(context.Background(), schema.KindFlavors); err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if a.store.Fallback() {
		t.Fatalf("structured engine unavailable: %v", a.store.OpenError())
	}

	if a.migration == nil {
		t.Fatal("migration result not captured by the probe hook")
	}
	if got := a.migration.Migrated[schema.KindFlavors]; got != 1 {
		t.Errorf("Migrated[flavors] = %d, want 1", got)
	}
	if a.migration.Seeded != 0 {
		t.Errorf("Seeded = %d over a migrated catalog, want 0", a.migration.Seeded)
	}
}
