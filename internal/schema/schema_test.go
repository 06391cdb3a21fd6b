package schema

import (
	"reflect"
	"testing"
	"time"
)

// TestDefinitions_Pure tests that repeated calls return identical layouts.
func TestDefinitions_Pure(t *testing.T) {
	a := Definitions()
	b := Definitions()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Definitions() not stable across calls:\n%v\n%v", a, b)
	}
}

// TestDefinitions_OnePrimaryKeyPerKind tests that every kind declares
// exactly one primary key and that all kinds are covered.
func TestDefinitions_OnePrimaryKeyPerKind(t *testing.T) {
	defs := Definitions()
	if len(defs) != len(Kinds()) {
		t.Fatalf("Definitions() covers %d kinds, want %d", len(defs), len(Kinds()))
	}

	seen := map[Kind]bool{}
	for _, def := range defs {
		if def.PrimaryKey == "" {
			t.Errorf("kind %s has no primary key", def.Kind)
		}
		if seen[def.Kind] {
			t.Errorf("kind %s declared twice", def.Kind)
		}
		seen[def.Kind] = true
	}
}

// TestDefinitions_IndexVersions tests that no index predates the version
// that introduced it or postdates the current version.
func TestDefinitions_IndexVersions(t *testing.T) {
	for _, def := range Definitions() {
		for _, idx := range def.Indexes {
			if idx.Since < 1 || idx.Since > Version {
				t.Errorf("index %s.%s declared at version %d, want 1..%d",
					def.Kind, idx.Field, idx.Since, Version)
			}
		}
	}
}

// TestDefinitionFor tests kind lookup.
func TestDefinitionFor(t *testing.T) {
	def, ok := DefinitionFor(KindOrders)
	if !ok {
		t.Fatal("DefinitionFor(orders) not found")
	}
	if def.PrimaryKey != "id" {
		t.Errorf("orders primary key = %q, want %q", def.PrimaryKey, "id")
	}
	if len(def.Indexes) != 2 {
		t.Errorf("orders has %d indexes, want 2", len(def.Indexes))
	}

	if _, ok := DefinitionFor(Kind("cupcakes")); ok {
		t.Error("DefinitionFor(cupcakes) found, want missing")
	}
}

// TestRecord_Keys tests that each record type keys on its primary field.
func TestRecord_Keys(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"flavor", &Flavor{Name: "Chocolate", PricePerKg: 50}, "Chocolate"},
		{"client", &Client{ID: "c-1", Name: "Maya"}, "c-1"},
		{"order", &Order{ID: "o-1", Status: StatusPending}, "o-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestOrderTypes tests the closed order-type enum used for entry-side
// validation.
func TestOrderTypes(t *testing.T) {
	want := []string{OrderReadyMade, OrderCustom}
	if !reflect.DeepEqual(OrderTypes(), want) {
		t.Errorf("OrderTypes() = %v, want %v", OrderTypes(), want)
	}
}

// TestValidateRecord_KindMismatch tests that a record of the wrong type is
// rejected for a kind.
func TestValidateRecord_KindMismatch(t *testing.T) {
	if err := ValidateRecord(KindFlavors, &Client{ID: "c-1"}); err == nil {
		t.Error("ValidateRecord(flavors, *Client) succeeded, want error")
	}
	if err := ValidateRecord(KindOrders, &Order{}); err == nil {
		t.Error("ValidateRecord with empty key succeeded, want error")
	}
	if err := ValidateRecord(Kind("cupcakes"), &Flavor{Name: "x"}); err == nil {
		t.Error("ValidateRecord(unknown kind) succeeded, want error")
	}
	if err := ValidateRecord(KindFlavors, &Flavor{Name: "Vanilla"}); err != nil {
		t.Errorf("ValidateRecord(flavors, valid flavor) failed: %v", err)
	}
}

// TestDecodeList_RoundTrip tests encode/decode of an order collection,
// including optional-field omission.
func TestDecodeList_RoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	in := []Record{
		&Order{
			ID:           "o-1",
			Type:         OrderCustom,
			WeightKg:     2.5,
			Flavor:       "Chocolate",
			Price:        125,
			DeliveryDate: "2026-08-15",
			Status:       StatusPending,
			CreatedAt:    created,
			Decorated:    true,
			DecorPrice:   20,
		},
		&Order{
			ID:        "o-2",
			Type:      OrderReadyMade,
			WeightKg:  1,
			Flavor:    "Vanilla",
			Price:     40,
			Status:    StatusReady,
			CreatedAt: created,
		},
	}

	data, err := EncodeList(in)
	if err != nil {
		t.Fatalf("EncodeList() failed: %v", err)
	}

	out, err := DecodeList(KindOrders, data)
	if err != nil {
		t.Fatalf("DecodeList() failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\nin:  %+v\nout: %+v", in, out)
	}
}

// TestDecodeList_RejectsNonArray tests that a non-sequence payload is an
// error, not a silent empty result. The flat backend decides what to do
// with the error.
func TestDecodeList_RejectsNonArray(t *testing.T) {
	if _, err := DecodeList(KindFlavors, []byte(`{"name":"x"}`)); err == nil {
		t.Error("DecodeList(object) succeeded, want error")
	}
	if _, err := DecodeList(KindFlavors, []byte(`not json`)); err == nil {
		t.Error("DecodeList(garbage) succeeded, want error")
	}
}

// TestEncodeList_EmptyIsArray tests that an empty collection serializes to
// a JSON array, so a later read does not look corrupt.
func TestEncodeList_EmptyIsArray(t *testing.T) {
	data, err := EncodeList(nil)
	if err != nil {
		t.Fatalf("EncodeList(nil) failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("EncodeList(nil) = %q, want %q", data, "[]")
	}
}
