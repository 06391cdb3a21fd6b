// Package storage defines the backend-agnostic persistence contract for
// caketrack and the Facade that application code depends on.
//
// # Overview
//
// Two backends implement the Store interface:
//
//   - storage/sqlite: embedded SQLite, transactional and indexed. Preferred.
//   - storage/flatfile: whole-collection JSON files. Used when SQLite cannot
//     be opened, or as a storage-less no-op outside any data directory.
//
// The Facade probes the structured backend exactly once per process; on
// failure it falls back to the flat backend for the rest of the session.
// A fresh probe happens only on the next process start.
//
// # Errors
//
// Callers see only the sentinels in errors.go, checked with errors.Is.
// Engine-specific causes stay attached to the chain for logging. Deleting an
// absent key, reading an empty kind, and writing the first record of a kind
// are not errors anywhere in the stack.
package storage
