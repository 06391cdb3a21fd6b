package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/caketrack/caketrack/internal/schema"
)

// Subscriber watches the events directory and delivers change events
// published by other execution contexts.
//
// Delivery is best-effort: the channel is buffered, and an event arriving
// while the buffer is full during shutdown is dropped. Consumers must also
// re-read periodically to cover missed messages.
type Subscriber struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	logger  *log.Logger
}

// NewSubscriber creates a subscriber over the given events directory.
// The subscriber must be started with Start() before it emits events.
//
// If logger is nil, a default logger writing to stderr is used.
func NewSubscriber(dir string, logger *log.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Subscriber{
		watcher: watcher,
		dir:     dir,
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
		logger:  logger,
	}, nil
}

// Start begins watching the events directory. The directory is created if
// missing so the watch can be established before the first publish.
func (s *Subscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("subscriber already running")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create events directory %s: %w", s.dir, err)
	}

	if err := s.watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch events directory %s: %w", s.dir, err)
	}

	s.running = true
	s.wg.Add(1)
	go s.processEvents()

	return nil
}

// Stop stops watching and closes the event channel. It blocks until the
// processing goroutine has exited.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.done)

	if err := s.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	s.wg.Wait()
	close(s.events)

	return nil
}

// Events returns the channel that emits change events. The channel is
// closed when the subscriber is stopped.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// IsRunning returns true if the subscriber is currently watching.
func (s *Subscriber) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// processEvents converts fsnotify events into decoded change events.
func (s *Subscriber) processEvents() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			ev, ok := s.decodeFile(event)
			if !ok {
				continue
			}

			select {
			case s.events <- ev:
			case <-s.done:
				return
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("WARNING: watch error: %v", err)
		}
	}
}

// decodeFile reads and validates one event file. Anything that is not a
// well-formed change event is ignored, per the consumer contract.
func (s *Subscriber) decodeFile(event fsnotify.Event) (Event, bool) {
	// Only completed publishes: the publisher renames a .tmp file into
	// place, which arrives as Create (or Rename on some platforms).
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return Event{}, false
	}

	base := filepath.Base(event.Name)
	if !strings.HasPrefix(base, "ev-") || !strings.HasSuffix(base, ".json") {
		return Event{}, false
	}

	data, err := os.ReadFile(event.Name)
	if err != nil {
		// The file may already be pruned; that's a miss, not a failure.
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, false
	}
	if ev.Type != EventKindChanged || !schema.KnownKind(ev.Kind) {
		return Event{}, false
	}

	return ev, true
}
