// Package notify broadcasts "record kind changed" events between caketrack
// processes sharing one data directory.
//
// # Overview
//
// The broadcast topic is the events/ directory under the data dir. A
// Publisher drops one small JSON file per change; a Subscriber watches the
// directory with fsnotify and delivers decoded events on a channel. Files
// that are not events, and events of unknown shape, are ignored rather than
// failed on.
//
// Delivery is best-effort and advisory. A publish failure is swallowed, so
// it never turns a successful write into a reported failure, and a consumer
// that misses a message recovers by re-reading on its next wake. Processes
// without a data directory use NopPublisher.
package notify
