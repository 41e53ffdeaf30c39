package engine

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/roach88/formic/internal/compiler"
	"github.com/roach88/formic/internal/config"
	"github.com/roach88/formic/internal/expr"
	"github.com/roach88/formic/internal/state"
)

// Navigator receives navigation requests emitted by action dispatch.
// The engine never manipulates a navigation stack itself.
type Navigator interface {
	Navigate(target string) error
	NavigateBack() error
	NavigateHome() error
}

// ActionHandler receives custom actions forwarded by action dispatch.
type ActionHandler interface {
	HandleAction(action config.Action, origin config.ElementID) error
}

// ValidatorFunc is a synchronous custom validation function.
// A non-nil error means the value fails; the error text becomes the
// displayed message.
type ValidatorFunc func(v config.Value, params config.Object) error

// AsyncValidatorFunc is a custom validation run off the update path
// (remote lookups, slow checks). The context is cancelled when the
// engine stops. The result is folded back into form state as a
// follow-up transaction, and discarded if the element was edited
// again in the meantime.
type AsyncValidatorFunc func(ctx context.Context, v config.Value, params config.Object) error

// Recorder receives one record per published transaction.
// Implemented by the journal; a nil recorder disables journaling.
type Recorder interface {
	Record(ctx context.Context, tx Transaction) error
}

// Transaction describes one published state change for the journal.
type Transaction struct {
	Token      string
	Version    int64
	Kind       string // "update" | "reset" | "validate_all" | "async"
	ElementID  config.ElementID
	Value      config.Value
	ErrorCount int
	ConfigHash string
}

// Engine is the single owner of form state for one configuration.
//
// All mutations run through the serialized transaction path (one
// in-flight recomputation at a time); the state store may be read
// concurrently by any number of observers. Evaluation failures inside
// a transaction are recovered per element and never abort the
// transaction.
type Engine struct {
	cfg   *config.Config
	idx   *config.Index
	eval  *expr.Evaluator
	store *state.Store
	clock *Clock

	tokenGen TokenGenerator
	now      func() time.Time
	hash     string

	nav      Navigator
	handler  ActionHandler
	recorder Recorder

	validators      map[string]ValidatorFunc
	asyncValidators map[string]AsyncValidatorFunc
	patterns        map[string]*regexp.Regexp

	// txMu serializes transactions: value-then-recompute runs as one
	// unit, never interleaved.
	txMu sync.Mutex

	// lastEdit tracks the version at which each element was last
	// edited, for discarding superseded async results.
	lastEdit map[config.ElementID]int64

	queue     *eventQueue
	debounce  *debouncer
	asyncCtx  context.Context
	asyncStop context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithNavigator sets the navigation collaborator.
func WithNavigator(n Navigator) Option {
	return func(e *Engine) { e.nav = n }
}

// WithActionHandler sets the custom-action collaborator.
func WithActionHandler(h ActionHandler) Option {
	return func(e *Engine) { e.handler = h }
}

// WithRecorder sets the transaction recorder (journal).
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithTokenGenerator overrides the transaction token generator.
// Tests use NewFixedGenerator for deterministic tokens.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokenGen = g }
}

// WithNow overrides the timestamp source for validation errors.
// Tests and golden comparisons pin it to a fixed instant.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithValidator registers a synchronous custom validation function.
func WithValidator(name string, fn ValidatorFunc) Option {
	return func(e *Engine) { e.validators[name] = fn }
}

// WithAsyncValidator registers an asynchronous custom validation
// function.
func WithAsyncValidator(name string, fn AsyncValidatorFunc) Option {
	return func(e *Engine) { e.asyncValidators[name] = fn }
}

// WithClock overrides the version clock. Used by journal replay to
// resume from a recorded version.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New compiles and validates the configuration, then constructs an
// engine with an initial snapshot: element defaults applied, initial
// visibility and enablement evaluated, no errors, nothing touched.
//
// A configuration with any static error (missing reference, dependency
// cycle, malformed rule) is rejected here with a ConfigurationError;
// the engine never starts on one.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cerrs := compiler.CompileConfig(cfg); len(cerrs) > 0 {
		return nil, &ConfigurationError{Errors: cerrs}
	}

	idx := cfg.BuildIndex()
	asyncCtx, asyncStop := context.WithCancel(context.Background())
	e := &Engine{
		cfg:             cfg,
		idx:             idx,
		eval:            expr.New(idx),
		store:           state.NewStore(),
		clock:           NewClock(),
		tokenGen:        UUIDv7Generator{},
		now:             time.Now,
		hash:            cfg.Fingerprint(),
		validators:      make(map[string]ValidatorFunc),
		asyncValidators: make(map[string]AsyncValidatorFunc),
		patterns:        make(map[string]*regexp.Regexp),
		lastEdit:        make(map[config.ElementID]int64),
		queue:           newEventQueue(),
		asyncCtx:        asyncCtx,
		asyncStop:       asyncStop,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.debounce = newDebouncer(e.queue)

	// Pattern rules passed static validation, so compilation here
	// cannot fail; cache the compiled forms for the hot path.
	for _, id := range idx.Elements() {
		for _, rule := range idx.Component(id).Rules {
			if rule.Type == config.RulePattern && rule.Pattern != "" {
				if re, err := regexp.Compile(rule.Pattern); err == nil {
					e.patterns[rule.Pattern] = re
				}
			}
		}
	}

	e.publishInitial()

	slog.Info("form engine ready",
		"config", cfg.ID,
		"elements", idx.Len(),
		"config_hash", e.hash,
	)
	return e, nil
}

// publishInitial builds and publishes the version-1 snapshot.
func (e *Engine) publishInitial() {
	draft := state.NewSnapshot()
	for _, id := range e.idx.Elements() {
		comp := e.idx.Component(id)
		if comp.Default != nil {
			draft.Values[id] = comp.Default
		}
	}
	for _, id := range e.idx.Elements() {
		e.recomputeDerived(draft, e.idx.Component(id))
	}
	draft.Version = e.clock.Next()
	if err := e.store.Publish(draft); err != nil {
		// Version 1 against an empty store cannot be stale
		slog.Error("initial publish failed", "error", err)
	}
}

// Snapshot returns the latest published snapshot. Non-blocking and
// safe from any goroutine.
func (e *Engine) Snapshot() *state.Snapshot {
	return e.store.Current()
}

// Store exposes the state store for observer subscription.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Config returns the loaded configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Index returns the configuration index.
func (e *Engine) Index() *config.Index {
	return e.idx
}

// ConfigHash returns the configuration fingerprint transactions are
// stamped with.
func (e *Engine) ConfigHash() string {
	return e.hash
}

// HasErrors reports whether any currently visible element carries
// errors. Errors on hidden elements never count: a user cannot fix
// what they cannot see.
func (e *Engine) HasErrors() bool {
	snap := e.store.Current()
	for id, errs := range snap.Errors {
		if len(errs) > 0 && snap.Visible(id) {
			return true
		}
	}
	return false
}

// ScheduleUpdate queues a value edit, applying the element's debounce
// policy: rapid repeated edits to the same element coalesce and only
// the last value is validated. Elements without a debounce window are
// enqueued immediately. The edit is applied by the Run loop.
//
// Returns an unknown-element error without queueing anything if the
// element is not configured.
func (e *Engine) ScheduleUpdate(id config.ElementID, v config.Value) error {
	comp := e.idx.Component(id)
	if comp == nil {
		return NewUnknownElementError(id)
	}
	delay := time.Duration(comp.DebounceMillis) * time.Millisecond
	e.debounce.schedule(id, v, delay)
	return nil
}

// Run starts the event loop that applies queued edits and async
// validation results. Blocks until the context is cancelled or Stop is
// called. Processing failures are logged with full event context and
// the loop continues; a broken event must not stall the form.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine loop starting", "config", e.cfg.ID)

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			if err := e.processEvent(ctx, event); err != nil {
				slog.Error("event processing failed",
					"error", err,
					"event_type", event.Type,
					"element", event.ElementID,
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine loop stopping: context cancelled", "config", e.cfg.ID)
			e.shutdown()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Len() == 0 {
				slog.Info("engine loop stopping: queue closed", "config", e.cfg.ID)
				return nil
			}
		}
	}
}

// Stop shuts down the event loop, debounce timers, and in-flight
// async validations.
func (e *Engine) Stop() {
	e.shutdown()
}

func (e *Engine) shutdown() {
	e.debounce.stopAll()
	e.asyncStop()
	e.queue.Close()
}

func (e *Engine) processEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case EventTypeEdit:
		_, err := e.UpdateValue(event.ElementID, event.Value)
		return err
	case EventTypeAsyncResult:
		return e.applyAsyncResult(ctx, event)
	default:
		return &RuntimeError{Code: ErrCodeStopped, Message: "unknown event type"}
	}
}
