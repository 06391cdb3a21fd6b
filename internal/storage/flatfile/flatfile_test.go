package flatfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caketrack/caketrack/internal/schema"
	"github.com/caketrack/caketrack/internal/storage"
)

func testOrder(id string) *schema.Order {
	return &schema.Order{
		ID:        id,
		Type:      schema.OrderCustom,
		WeightKg:  2,
		Flavor:    "Chocolate",
		Price:     100,
		Status:    schema.StatusPending,
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

// TestPut_RoundTrip tests put-then-read through the collection file.
func TestPut_RoundTrip(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Chocolate", PricePerKg: 50}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	recs, err := s.GetAll(ctx, schema.KindFlavors)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("GetAll() = %d records, want 1", len(recs))
	}
	if got := recs[0].(*schema.Flavor).Name; got != "Chocolate" {
		t.Errorf("Name = %q, want %q", got, "Chocolate")
	}
}

// TestPut_UpsertIdempotent tests overwrite-by-key semantics.
func TestPut_UpsertIdempotent(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Chocolate", PricePerKg: 50}); err != nil {
		t.Fatalf("First Put() failed: %v", err)
	}
	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Chocolate", PricePerKg: 60}); err != nil {
		t.Fatalf("Second Put() failed: %v", err)
	}

	recs, err := s.GetAll(ctx, schema.KindFlavors)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("GetAll() = %d records, want 1", len(recs))
	}
	if got := recs[0].(*schema.Flavor).PricePerKg; got != 60 {
		t.Errorf("PricePerKg = %v, want 60", got)
	}
}

// TestPut_CaseSensitiveKeys tests that differently cased names are
// different keys at the storage layer.
func TestPut_CaseSensitiveKeys(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Chocolate", PricePerKg: 50}); err != nil {
		t.Fatalf("Put(Chocolate) failed: %v", err)
	}
	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "chocolate", PricePerKg: 99}); err != nil {
		t.Fatalf("Put(chocolate) failed: %v", err)
	}

	recs, err := s.GetAll(ctx, schema.KindFlavors)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("GetAll() = %d records, want 2", len(recs))
	}
}

// TestDelete_Idempotent tests double delete and absent-key delete.
func TestDelete_Idempotent(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindClients, &schema.Client{ID: "c-1", Name: "Maya"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if err := s.Delete(ctx, schema.KindClients, "c-1"); err != nil {
		t.Fatalf("First Delete() failed: %v", err)
	}
	if err := s.Delete(ctx, schema.KindClients, "c-1"); err != nil {
		t.Errorf("Second Delete() failed: %v", err)
	}
	if err := s.Delete(ctx, schema.KindClients, "never-existed"); err != nil {
		t.Errorf("Delete(absent) failed: %v", err)
	}

	recs, err := s.GetAll(ctx, schema.KindClients)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("GetAll() = %d records after delete, want 0", len(recs))
	}
}

// TestBulkPut_MergesByKey tests that a bulk write updates existing keys in
// place and appends new ones, in one collection rewrite.
func TestBulkPut_MergesByKey(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindOrders, testOrder("o-1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	updated := testOrder("o-1")
	updated.Status = schema.StatusReady
	if err := s.BulkPut(ctx, schema.KindOrders, []schema.Record{updated, testOrder("o-2")}); err != nil {
		t.Fatalf("BulkPut() failed: %v", err)
	}

	recs, err := s.GetAll(ctx, schema.KindOrders)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("GetAll() = %d records, want 2", len(recs))
	}

	byID := map[string]*schema.Order{}
	for _, rec := range recs {
		o := rec.(*schema.Order)
		byID[o.ID] = o
	}
	if byID["o-1"] == nil || byID["o-1"].Status != schema.StatusReady {
		t.Errorf("o-1 not overwritten by bulk put: %+v", byID["o-1"])
	}
	if byID["o-2"] == nil {
		t.Error("o-2 not appended by bulk put")
	}
}

// TestGetAll_CorruptPayload tests that an unparsable collection reads as
// empty rather than failing, and that a write afterwards replaces it.
func TestGetAll_CorruptPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"garbage", `{{{{not json`},
		{"non_sequence", `{"name":"Chocolate","pricePerKg":50}`},
		{"wrong_element_type", `[42, "x"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s := New(dir, nil)
			ctx := context.Background()

			path := filepath.Join(dir, "flavors.json")
			if err := os.WriteFile(path, []byte(tt.payload), 0644); err != nil {
				t.Fatalf("Failed to plant payload: %v", err)
			}

			recs, err := s.GetAll(ctx, schema.KindFlavors)
			if err != nil {
				t.Fatalf("GetAll() on corrupt payload failed: %v", err)
			}
			if len(recs) != 0 {
				t.Errorf("GetAll() = %d records from corrupt payload, want 0", len(recs))
			}

			// The degraded-to-empty collection accepts writes normally.
			if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Vanilla", PricePerKg: 45}); err != nil {
				t.Fatalf("Put() after corruption failed: %v", err)
			}
			recs, err = s.GetAll(ctx, schema.KindFlavors)
			if err != nil {
				t.Fatalf("GetAll() failed: %v", err)
			}
			if len(recs) != 1 {
				t.Errorf("GetAll() = %d records after recovery write, want 1", len(recs))
			}
		})
	}
}

// TestStorageless_NoOps tests the no-storage mode: every operation succeeds
// and nothing is persisted.
func TestStorageless_NoOps(t *testing.T) {
	s := New("", nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Chocolate", PricePerKg: 50}); err != nil {
		t.Errorf("Put() in storage-less mode failed: %v", err)
	}
	if err := s.BulkPut(ctx, schema.KindOrders, []schema.Record{testOrder("o-1")}); err != nil {
		t.Errorf("BulkPut() in storage-less mode failed: %v", err)
	}
	if err := s.Delete(ctx, schema.KindFlavors, "Chocolate"); err != nil {
		t.Errorf("Delete() in storage-less mode failed: %v", err)
	}
	if err := s.Clear(ctx, schema.KindFlavors); err != nil {
		t.Errorf("Clear() in storage-less mode failed: %v", err)
	}

	recs, err := s.GetAll(ctx, schema.KindFlavors)
	if err != nil {
		t.Errorf("GetAll() in storage-less mode failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("GetAll() = %d records in storage-less mode, want 0", len(recs))
	}
}

// TestClear_RemovesCollection tests the migration-support clear.
func TestClear_RemovesCollection(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	ctx := context.Background()

	if err := s.Put(ctx, schema.KindOrders, testOrder("o-1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Clear(ctx, schema.KindOrders); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	// Clearing an already-clear kind is fine.
	if err := s.Clear(ctx, schema.KindOrders); err != nil {
		t.Errorf("Second Clear() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "orders.json")); !os.IsNotExist(err) {
		t.Error("orders.json still exists after Clear()")
	}
}

// TestOrders_Filters tests the linear-scan date and status lookups,
// including exclusion of unscheduled orders from date lookups.
func TestOrders_Filters(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	dated := testOrder("o-dated")
	dated.DeliveryDate = "2026-09-01"
	undated := testOrder("o-undated")
	ready := testOrder("o-ready")
	ready.Status = schema.StatusReady

	if err := s.BulkPut(ctx, schema.KindOrders, []schema.Record{dated, undated, ready}); err != nil {
		t.Fatalf("BulkPut() failed: %v", err)
	}

	onDate, err := s.OrdersOn(ctx, "2026-09-01")
	if err != nil {
		t.Fatalf("OrdersOn() failed: %v", err)
	}
	if len(onDate) != 1 || onDate[0].ID != "o-dated" {
		t.Errorf("OrdersOn(2026-09-01) = %v, want just o-dated", onDate)
	}

	empty, err := s.OrdersOn(ctx, "")
	if err != nil {
		t.Fatalf("OrdersOn(\"\") failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("OrdersOn(\"\") = %d orders, want 0", len(empty))
	}

	byStatus, err := s.OrdersWithStatus(ctx, schema.StatusReady)
	if err != nil {
		t.Fatalf("OrdersWithStatus() failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "o-ready" {
		t.Errorf("OrdersWithStatus(ready) = %v, want just o-ready", byStatus)
	}
}

// TestOps_FilesystemFault tests that a filesystem-level fault surfaces as
// ErrTransactionFailed, the same way an engine fault does on the structured
// backend.
func TestOps_FilesystemFault(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	ctx := context.Background()

	// A non-empty directory where the collection file should be breaks
	// reads, rewrites, and clears alike.
	if err := os.MkdirAll(filepath.Join(dir, "flavors.json", "x"), 0755); err != nil {
		t.Fatalf("Failed to plant blocking directory: %v", err)
	}

	if _, err := s.GetAll(ctx, schema.KindFlavors); !errors.Is(err, storage.ErrTransactionFailed) {
		t.Errorf("GetAll() = %v, want ErrTransactionFailed", err)
	}
	if err := s.Put(ctx, schema.KindFlavors, &schema.Flavor{Name: "Chocolate", PricePerKg: 50}); !errors.Is(err, storage.ErrTransactionFailed) {
		t.Errorf("Put() = %v, want ErrTransactionFailed", err)
	}
	if err := s.Delete(ctx, schema.KindFlavors, "Chocolate"); !errors.Is(err, storage.ErrTransactionFailed) {
		t.Errorf("Delete() = %v, want ErrTransactionFailed", err)
	}
	if err := s.Clear(ctx, schema.KindFlavors); !errors.Is(err, storage.ErrTransactionFailed) {
		t.Errorf("Clear() = %v, want ErrTransactionFailed", err)
	}
}

// TestSave_AtomicReplace tests that a put leaves no temp file behind.
func TestSave_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	if err := s.Put(context.Background(), schema.KindFlavors, &schema.Flavor{Name: "Lemon", PricePerKg: 48}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "flavors.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind after Put()")
	}
}
