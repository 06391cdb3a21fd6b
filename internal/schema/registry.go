package schema

// Version is the current schema version. The structured backend compares it
// against the on-disk version at open time and upgrades in place when the
// on-disk copy is older.
//
// History:
//   - 1: flavors, clients, orders tables
//   - 2: delivery_date and status indexes on orders
const Version = 2

// Kind identifies one of the stored record kinds. The value doubles as the
// collection name in both backends.
type Kind string

const (
	// KindFlavors is the catalog of cake flavors, keyed by name.
	KindFlavors Kind = "flavors"
	// KindClients is the customer book, keyed by caller-generated id.
	KindClients Kind = "clients"
	// KindOrders is the order book, keyed by caller-generated id.
	KindOrders Kind = "orders"
)

// Kinds returns all record kinds in dependency-free declaration order.
func Kinds() []Kind {
	return []Kind{KindFlavors, KindClients, KindOrders}
}

// KnownKind reports whether k names a registered record kind.
func KnownKind(k Kind) bool {
	switch k {
	case KindFlavors, KindClients, KindOrders:
		return true
	}
	return false
}

// Index describes one secondary index on a kind.
type Index struct {
	// Field is the indexed column/field name.
	Field string
	// Since is the schema version that introduced the index. Records written
	// before Since never carry the field and never match lookups on it.
	Since int
}

// Definition describes the storage layout of one record kind.
type Definition struct {
	Kind       Kind
	PrimaryKey string
	Indexes    []Index
}

// Definitions returns the layout for every record kind at the current
// Version. Pure and idempotent; never mutated at run time.
func Definitions() []Definition {
	return []Definition{
		{Kind: KindFlavors, PrimaryKey: "name"},
		{Kind: KindClients, PrimaryKey: "id"},
		{
			Kind:       KindOrders,
			PrimaryKey: "id",
			Indexes: []Index{
				{Field: "delivery_date", Since: 2},
				{Field: "status", Since: 2},
			},
		},
	}
}

// DefinitionFor returns the definition for a single kind, or false if the
// kind is not registered.
func DefinitionFor(k Kind) (Definition, bool) {
	for _, def := range Definitions() {
		if def.Kind == k {
			return def, true
		}
	}
	return Definition{}, false
}
