package listview

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/isow/backend/internal/domain/shared"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Entity names served by the registry
const (
	EntityCompanies = "companies"
	EntityUsers     = "users"
)

// ErrUnknownEntity is returned for an entity without a registered factory
var ErrUnknownEntity = shared.NewDomainError("INVALID_INPUT", "Unknown list entity")

// View is the type-erased surface of a ViewModel used by the HTTP layer
type View interface {
	Entity() string
	State() State
	Mode() RenderMode
	Refresh(ctx context.Context) error
	StartRefresh() error
	Revalidate() error
	OpenEdit(id string) error
	SubmitEditFrom(ctx context.Context, bind func(any) error) error
	CancelEdit()
	RequestDelete(id string) error
	ConfirmDelete(ctx context.Context) error
	CancelDelete()
	Notify(kind NotificationKind, title, body string)
	Snapshot(lang language.Tag) Snapshot
	LastTouched() time.Time
	Close()
}

// Factory builds a fresh view for one session
type Factory func() View

type viewKey struct {
	session string
	entity  string
}

// Registry keeps one view per session and entity. Idle views are closed by
// a cron sweep.
type Registry struct {
	factories map[string]Factory
	idleTTL   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	views map[viewKey]View

	cron *cron.Cron
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithClock overrides the clock used for idle checks
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a registry serving the given entity factories
func NewRegistry(factories map[string]Factory, idleTTL time.Duration, logger *zap.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		factories: factories,
		idleTTL:   idleTTL,
		logger:    logger,
		now:       time.Now,
		views:     make(map[viewKey]View),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Entities returns the registered entity names
func (r *Registry) Entities() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the session's view of entity, creating it on first use.
// The boolean is true when the view was just created.
func (r *Registry) Get(sessionID, entity string) (View, bool, error) {
	factory, ok := r.factories[entity]
	if !ok {
		return nil, false, ErrUnknownEntity
	}
	key := viewKey{session: sessionID, entity: entity}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.views[key]; ok {
		return v, false, nil
	}
	v := factory()
	r.views[key] = v
	return v, true, nil
}

// Drop closes every view of the session
func (r *Registry) Drop(sessionID string) int {
	r.mu.Lock()
	var dropped []View
	for key, v := range r.views {
		if key.session == sessionID {
			dropped = append(dropped, v)
			delete(r.views, key)
		}
	}
	r.mu.Unlock()

	for _, v := range dropped {
		v.Close()
	}
	return len(dropped)
}

// Sweep closes views idle for longer than the idle TTL
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []View
	for key, v := range r.views {
		if v.LastTouched().Before(cutoff) {
			idle = append(idle, v)
			delete(r.views, key)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug("swept idle list views", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Len returns the number of live views
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Start schedules the idle sweep, e.g. "@every 5m"
func (r *Registry) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { r.Sweep() }); err != nil {
		return err
	}
	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	c.Start()
	r.logger.Info("list view sweep scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop stops the sweep and closes every view
func (r *Registry) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	all := make([]View, 0, len(r.views))
	for key, v := range r.views {
		all = append(all, v)
		delete(r.views, key)
	}
	r.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	for _, v := range all {
		v.Close()
	}
}
