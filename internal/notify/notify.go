package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/caketrack/caketrack/internal/schema"
)

// EventKindChanged is the only event type currently broadcast. Consumers
// ignore messages with any other type.
const EventKindChanged = "kind-changed"

// maxEventAge is how long a published event file stays on disk before the
// next Publish call prunes it.
const maxEventAge = time.Minute

// Event tells other execution contexts that one record of a kind changed
// and they should re-read through the store.
type Event struct {
	Type string      `json:"type"`
	Kind schema.Kind `json:"kind"`
	Key  string      `json:"key"`
}

// KindChanged builds the standard change event.
func KindChanged(kind schema.Kind, key string) Event {
	return Event{Type: EventKindChanged, Kind: kind, Key: key}
}

// Publisher broadcasts change events. Publish is fire-and-forget: failures
// are swallowed by the implementation, never reported to the writer.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher discards every event. Used in storage-less contexts and in
// tests that don't care about notification.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}

// DirPublisher broadcasts by writing one JSON file per event into a shared
// directory. Subscribers in other processes pick the files up via fsnotify.
type DirPublisher struct {
	dir    string
	logger *log.Logger
	seq    atomic.Uint64
}

// NewDirPublisher creates a publisher over the given events directory.
// The directory is created on first Publish, not here, so constructing a
// publisher never fails.
//
// If logger is nil, a default logger writing to stderr is used.
func NewDirPublisher(dir string, logger *log.Logger) *DirPublisher {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	return &DirPublisher{dir: dir, logger: logger}
}

// Publish implements Publisher. All failures are logged and swallowed.
func (p *DirPublisher) Publish(ev Event) {
	if p.dir == "" {
		return
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		p.logger.Printf("WARNING: cannot create events directory: %v", err)
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Printf("WARNING: cannot marshal event: %v", err)
		return
	}

	name := fmt.Sprintf("ev-%d-%d-%d.json", time.Now().UnixNano(), os.Getpid(), p.seq.Add(1))
	path := filepath.Join(p.dir, name)

	// Write atomically via temp file so subscribers never read a partial
	// event.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		p.logger.Printf("WARNING: cannot write event file: %v", err)
		return
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		p.logger.Printf("WARNING: cannot publish event file: %v", err)
		return
	}

	p.prune()
}

// prune removes event files older than maxEventAge. Best-effort; the topic
// directory stays small without any coordinator process.
func (p *DirPublisher) prune() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxEventAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "ev-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(p.dir, entry.Name()))
		}
	}
}
