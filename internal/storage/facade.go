package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/caketrack/caketrack/internal/notify"
	"github.com/caketrack/caketrack/internal/schema"
)

// OpenFunc probes and opens the structured backend. It runs at most once
// per Facade; a non-nil error selects the fallback for the session.
type OpenFunc func(ctx context.Context) (Store, error)

// FacadeConfig wires a Facade's collaborators. The Facade owns nothing
// ambient: the structured probe, the fallback store, and the notifier are
// all injected.
type FacadeConfig struct {
	// OpenStructured probes the preferred engine. Nil means the structured
	// backend was disabled outright and the fallback is used from the start.
	OpenStructured OpenFunc

	// Fallback handles all operations when the structured engine is
	// unavailable. Required.
	Fallback Store

	// Notifier receives a change event after every successful write. Nil
	// means no notification (equivalent to notify.NopPublisher).
	Notifier notify.Publisher

	// OnStructuredReady runs once, right after a successful structured
	// open and before the first operation proceeds. The migration runner
	// hooks in here.
	OnStructuredReady func(ctx context.Context, structured Store)

	// Logger for backend selection and swallowed notification failures.
	// If nil, a default logger writing to stderr is used.
	Logger *log.Logger
}

// Facade is the single storage entry point application views depend on.
//
// The first operation triggers the capability probe; concurrent first
// callers block on the same in-flight open rather than starting a second
// one, and the result is cached for the process lifetime. There is no
// re-probe mid-session: a Failed structured engine means the flat backend
// serves everything until the next application load.
type Facade struct {
	cfg    FacadeConfig
	logger *log.Logger

	probe    sync.Once
	backend  Store
	fallback atomic.Bool
	openErr  atomic.Pointer[error]
}

// NewFacade creates a Facade. It performs no I/O; the engine probe is lazy.
func NewFacade(cfg FacadeConfig) *Facade {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[facade] ", log.LstdFlags)
	}
	return &Facade{cfg: cfg, logger: logger}
}

// selectBackend runs the one-time probe and returns the active backend.
func (f *Facade) selectBackend(ctx context.Context) Store {
	f.probe.Do(func() {
		if f.cfg.OpenStructured == nil {
			f.logger.Printf("structured engine disabled, using flat store")
			f.backend = f.cfg.Fallback
			f.fallback.Store(true)
			return
		}

		structured, err := f.cfg.OpenStructured(ctx)
		if err != nil {
			wrapped := fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
			f.openErr.Store(&wrapped)
			f.logger.Printf("falling back to flat store for this session: %v", wrapped)
			f.backend = f.cfg.Fallback
			f.fallback.Store(true)
			return
		}

		f.backend = structured
		if f.cfg.OnStructuredReady != nil {
			f.cfg.OnStructuredReady(ctx, structured)
		}
	})
	return f.backend
}

// Fallback reports whether the session is running on the degraded flat
// backend. False until the first operation has run the probe.
func (f *Facade) Fallback() bool {
	return f.fallback.Load()
}

// OpenError returns the cause of the fallback, wrapped in
// ErrEngineUnavailable, or nil. Informational only; operations never fail
// because of it. Safe to call while the probe is still in flight.
func (f *Facade) OpenError() error {
	if p := f.openErr.Load(); p != nil {
		return *p
	}
	return nil
}

// GetAll implements Store.
func (f *Facade) GetAll(ctx context.Context, kind schema.Kind) ([]schema.Record, error) {
	return f.selectBackend(ctx).GetAll(ctx, kind)
}

// Put implements Store. A successful write publishes a change event;
// notification failure never fails the write.
func (f *Facade) Put(ctx context.Context, kind schema.Kind, rec schema.Record) error {
	if err := f.selectBackend(ctx).Put(ctx, kind, rec); err != nil {
		return err
	}
	f.changed(kind, rec.Key())
	return nil
}

// BulkPut implements Store. One event covers the whole batch.
func (f *Facade) BulkPut(ctx context.Context, kind schema.Kind, recs []schema.Record) error {
	if err := f.selectBackend(ctx).BulkPut(ctx, kind, recs); err != nil {
		return err
	}
	if len(recs) > 0 {
		f.changed(kind, "")
	}
	return nil
}

// Delete implements Store.
func (f *Facade) Delete(ctx context.Context, kind schema.Kind, key string) error {
	if err := f.selectBackend(ctx).Delete(ctx, kind, key); err != nil {
		return err
	}
	f.changed(kind, key)
	return nil
}

// OrdersOn implements Store.
func (f *Facade) OrdersOn(ctx context.Context, date string) ([]*schema.Order, error) {
	return f.selectBackend(ctx).OrdersOn(ctx, date)
}

// OrdersWithStatus implements Store.
func (f *Facade) OrdersWithStatus(ctx context.Context, status string) ([]*schema.Order, error) {
	return f.selectBackend(ctx).OrdersWithStatus(ctx, status)
}

// changed publishes a kind-changed event after a committed write.
func (f *Facade) changed(kind schema.Kind, key string) {
	if f.cfg.Notifier == nil {
		return
	}
	f.cfg.Notifier.Publish(notify.KindChanged(kind, key))
}
