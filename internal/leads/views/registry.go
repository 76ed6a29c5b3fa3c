package views

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lead-workers/internal/common/logger"
	"lead-workers/internal/models"
)

// Persisted state keys. A registry namespace is prepended as "<ns>:<key>".
const (
	KeyCurrentView = "leads:view"
	KeyCustomViews = "leads:customViews"

	DefaultView = string(ViewAll)
)

var (
	ErrViewNotFound = errors.New("VIEW_NOT_FOUND")
	ErrInvalidView  = errors.New("INVALID_VIEW_DEFINITION")
	ErrInvalidSort  = errors.New("INVALID_SORT_OPTION")
	ErrStore        = errors.New("VIEW_STORE_FAILED")
)

// Registry resolves view names to views and persists the current selection
// and the custom views through a KVStore.
type Registry struct {
	mu        sync.RWMutex
	store     KVStore
	namespace string
	logger    logger.Logger
	now       func() time.Time

	current string
	sortBy  models.SortOption
	custom  map[string]Descriptor
}

type Option func(*Registry)

// WithNamespace scopes the persisted keys, typically to a user id.
func WithNamespace(namespace string) Option {
	return func(r *Registry) {
		r.namespace = namespace
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(store KVStore, log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		logger:  log,
		now:     time.Now,
		current: DefaultView,
		sortBy:  builtInViews[0].Sort,
		custom:  map[string]Descriptor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Load reads the persisted state. Absent or malformed data falls back to the
// "all" view and no custom views. Only store failures are returned, and the
// registry still holds the fallback state in that case.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = DefaultView
	r.custom = map[string]Descriptor{}

	var loadErr error

	raw, ok, err := r.store.Get(ctx, r.key(KeyCustomViews))
	switch {
	case err != nil:
		loadErr = fmt.Errorf("%w: %v", ErrStore, err)
		r.logger.Warn("failed to read custom views, using none", map[string]interface{}{
			"namespace": r.namespace,
			"error":     err.Error(),
		})
	case ok:
		r.custom = r.decodeCustomViews(raw)
	}

	name, ok, err := r.store.Get(ctx, r.key(KeyCurrentView))
	switch {
	case err != nil:
		if loadErr == nil {
			loadErr = fmt.Errorf("%w: %v", ErrStore, err)
		}
		r.logger.Warn("failed to read current view, using default", map[string]interface{}{
			"namespace": r.namespace,
			"error":     err.Error(),
		})
	case ok:
		name = decodeViewName(name)
		if _, found := r.lookup(name); found {
			r.current = name
		} else {
			r.logger.Warn("persisted view no longer exists, using default", map[string]interface{}{
				"namespace": r.namespace,
				"view":      name,
			})
		}
	}

	v, _ := r.lookup(r.current)
	r.sortBy = v.Sort
	return loadErr
}

func (r *Registry) decodeCustomViews(raw string) map[string]Descriptor {
	out := map[string]Descriptor{}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		r.logger.Warn("malformed custom views, using none", map[string]interface{}{
			"namespace": r.namespace,
			"error":     err.Error(),
		})
		return out
	}

	for name, entry := range entries {
		var d Descriptor
		if err := json.Unmarshal(entry, &d); err != nil {
			r.logger.Warn("dropping unreadable custom view", map[string]interface{}{
				"view":  name,
				"error": err.Error(),
			})
			continue
		}
		if err := d.Validate(); err != nil {
			r.logger.Warn("dropping invalid custom view", map[string]interface{}{
				"view":  name,
				"error": err.Error(),
			})
			continue
		}
		out[name] = d
	}
	return out
}

// decodeViewName accepts both a bare name and a JSON-encoded string.
func decodeViewName(raw string) string {
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}

func (r *Registry) lookup(name string) (View, bool) {
	if d, ok := r.custom[name]; ok {
		return customView(name, d), true
	}
	return LookupBuiltIn(name)
}

// Lookup resolves a view name. Custom views shadow built-in views.
func (r *Registry) Lookup(name string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(name)
}

// Current returns the selected view.
func (r *Registry) Current() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.lookup(r.current); ok {
		return v
	}
	return builtInViews[0]
}

// SortBy returns the active sort option.
func (r *Registry) SortBy() models.SortOption {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortBy
}

// SetSort overrides the active sort until the next Select.
func (r *Registry) SetSort(option models.SortOption) error {
	if !option.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidSort, option)
	}
	r.mu.Lock()
	r.sortBy = option
	r.mu.Unlock()
	return nil
}

// Now returns the registry clock's time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Views lists built-in views in display order, with shadowed entries replaced
// by their custom counterpart, followed by the remaining custom views by name.
func (r *Registry) Views() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]View, 0, len(builtInViews)+len(r.custom))
	for _, b := range builtInViews {
		if d, ok := r.custom[b.Name]; ok {
			out = append(out, customView(b.Name, d))
			continue
		}
		out = append(out, b)
	}

	names := make([]string, 0, len(r.custom))
	for name := range r.custom {
		if _, shadowed := LookupBuiltIn(name); !shadowed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, customView(name, r.custom[name]))
	}
	return out
}

// Select makes name the current view, resets the sort to the view's default
// and persists the choice.
func (r *Registry) Select(ctx context.Context, name string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.lookup(name)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}

	if err := r.store.Set(ctx, r.key(KeyCurrentView), name); err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	r.current = name
	r.sortBy = v.Sort
	return v, nil
}

// SaveCustom creates or replaces a custom view.
func (r *Registry) SaveCustom(ctx context.Context, name string, d Descriptor) (View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return View{}, fmt.Errorf("%w: view name is required", ErrInvalidView)
	}
	if d.Match == "" {
		d.Match = MatchAll
	}
	if d.Conditions == nil {
		d.Conditions = []Condition{}
	}
	if err := d.Validate(); err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidView, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]Descriptor, len(r.custom)+1)
	for k, v := range r.custom {
		next[k] = v
	}
	next[name] = d

	if err := r.persistCustom(ctx, next); err != nil {
		return View{}, err
	}
	r.custom = next
	return customView(name, d), nil
}

// DeleteCustom removes a custom view. If it was selected, the selection moves
// to the built-in view of the same name or to "all".
func (r *Registry) DeleteCustom(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.custom[name]; !ok {
		return fmt.Errorf("%w: no custom view %s", ErrViewNotFound, name)
	}

	next := make(map[string]Descriptor, len(r.custom))
	for k, v := range r.custom {
		if k != name {
			next[k] = v
		}
	}
	if err := r.persistCustom(ctx, next); err != nil {
		return err
	}
	r.custom = next

	if r.current != name {
		return nil
	}

	fallback, ok := LookupBuiltIn(name)
	if !ok {
		fallback = builtInViews[0]
	}
	if err := r.store.Set(ctx, r.key(KeyCurrentView), fallback.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	r.current = fallback.Name
	r.sortBy = fallback.Sort
	return nil
}

// CustomViews returns a copy of the stored descriptors.
func (r *Registry) CustomViews() map[string]Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Descriptor, len(r.custom))
	for k, v := range r.custom {
		out[k] = v
	}
	return out
}

func (r *Registry) persistCustom(ctx context.Context, custom map[string]Descriptor) error {
	payload, err := json.Marshal(custom)
	if err != nil {
		return fmt.Errorf("encode custom views: %w", err)
	}
	if err := r.store.Set(ctx, r.key(KeyCustomViews), string(payload)); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}
