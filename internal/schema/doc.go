// Package schema declares the record kinds stored by caketrack and the
// versioned layout the structured backend builds from them.
//
// # Overview
//
// Three kinds exist: flavors (the catalog), clients, and orders. Each kind
// has exactly one primary-key field and, for orders, two secondary indexes
// (delivery_date and status). The registry is static data: Definitions() is
// pure and is consulted only by the structured backend's initialization.
//
// # Records
//
// Record shapes are flat and self-contained. An order captures its client's
// id, name, and phone by value at sale time; the client id is a weak
// reference, so deleting a client never touches orders that mention it.
//
// The store validates nothing beyond key presence. Enum membership,
// finiteness of prices, and case-insensitive catalog naming are all
// application-layer concerns.
//
// # Versioning
//
// Version is the current schema version. Widening the schema (a new index)
// bumps Version; records written before an index existed simply never match
// lookups on that field.
package schema
