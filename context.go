package tabula

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vk/tabula/store"
)

// Context owns the registry of repositories and drives load, save, and
// reload across all declared datasets. Application code normally holds it
// through the generated aggregator, which embeds a *Context and adds one
// typed repository field per model.
type Context struct {
	storage store.Storage
	logger  *slog.Logger
	metrics *Metrics

	slots []*slot

	// The registry maps a slot name and a package-qualified record type
	// name to the same repository instance. Entries appear only when a
	// load installs a decoded repository; both keys are written together.
	mu     sync.RWMutex
	byName map[string]any
	byType map[string]any

	initialized atomic.Bool
}

// slot is one declared dataset: its identity, its storage location, and
// the typed load/save closures bound by Register at construction time.
type slot struct {
	name     string
	typeName string
	path     string

	load func(ctx context.Context, data []byte) error
	// save returns the encoded contents, or ok=false when the dataset was
	// never installed and there is nothing to persist.
	save func(ctx context.Context) (data []byte, ok bool, err error)
}

// Option configures a Context.
type Option func(*Context)

// WithStorage sets the storage collaborator. The default is the local
// filesystem rooted at the working directory.
func WithStorage(s store.Storage) Option {
	return func(c *Context) { c.storage = s }
}

// WithLogger sets the logger used for per-dataset load/save reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) { c.logger = logger }
}

// WithMetrics installs prometheus instrumentation for load/save/reload
// operations.
func WithMetrics(m *Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// NewContext creates an empty orchestrator. Generated aggregator
// constructors call this and then register one slot per model.
func NewContext(opts ...Option) *Context {
	c := &Context{
		storage: store.NewLocal("."),
		logger:  slog.Default(),
		byName:  make(map[string]any),
		byType:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialized reports whether the first LoadAll has completed. It is true
// even when some datasets failed: "ready enough to attempt lookups" is a
// deliberately weaker guarantee than "every dataset loaded".
func (c *Context) Initialized() bool {
	return c.initialized.Load()
}

// Slots returns the declared slot names in registration order.
func (c *Context) Slots() []string {
	names := make([]string, len(c.slots))
	for i, s := range c.slots {
		names[i] = s.name
	}
	return names
}

// install publishes a freshly decoded repository under both registry keys.
// Reloads overwrite both entries together; readers never observe a
// half-updated registry.
func (c *Context) install(s *slot, repo any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[s.name] = repo
	c.byType[s.typeName] = repo
}

// repoByType looks up an installed repository by record type name. Used by
// cross-reference resolution; never triggers I/O.
func (c *Context) repoByType(typeName string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	repo, ok := c.byType[typeName]
	return repo, ok
}

// repoByName looks up an installed repository by slot name.
func (c *Context) repoByName(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	repo, ok := c.byName[name]
	return repo, ok
}
