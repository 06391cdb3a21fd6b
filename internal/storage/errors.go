package storage

import "errors"

// Domain failure kinds surfaced by the storage layer.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, storage.ErrTransactionFailed) {
//	    // ask the user whether to retry their action
//	}
var (
	// ErrEngineUnavailable means the structured engine could not be opened
	// in this context (missing, denied, or corrupt beyond repair). It is
	// recovered internally: the Facade falls back to the flat backend for
	// the rest of the session and reports the condition through Fallback(),
	// never as an operation failure.
	ErrEngineUnavailable = errors.New("structured storage engine unavailable")

	// ErrTransactionFailed means a storage unit of work aborted: a
	// structured-backend transaction (quota, engine fault, handle
	// invalidated by a concurrent schema upgrade) or a flat-backend
	// collection read/rewrite that could not complete. No partial mutation
	// is observable afterward. Not retried automatically.
	ErrTransactionFailed = errors.New("storage transaction failed")

	// ErrCorruptPayload means a flat-backend collection failed to parse or
	// parsed to a non-sequence. The flat backend recovers it internally by
	// treating the collection as empty, so it reaches callers only through
	// logs, never through the Store interface.
	ErrCorruptPayload = errors.New("corrupt stored payload")

	// ErrUnknownKind means an operation named a record kind the schema
	// registry does not declare.
	ErrUnknownKind = errors.New("unknown record kind")
)
