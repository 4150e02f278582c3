// Package registry manages module lifecycle: registration, dependency
// ordering, initialization, event wiring, start and shutdown.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

var _ plugin.PluginResolver = (*Registry)(nil)

// Registry holds every compiled-in module.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	infos    map[string]plugin.PluginInfo
	order    []string // dependency order, set by Validate
	disabled map[string]bool
	unsubs   []func()
	logger   *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]plugin.Plugin),
		infos:    make(map[string]plugin.PluginInfo),
		disabled: make(map[string]bool),
		logger:   logger,
	}
}

// Register adds a module. Call before Validate.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("module has empty name")
	}
	if _, exists := r.plugins[info.Name]; exists {
		return fmt.Errorf("module %q already registered", info.Name)
	}
	r.plugins[info.Name] = p
	r.infos[info.Name] = info
	r.logger.Debug("module registered",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
	)
	return nil
}

// Disable marks a module as switched off by configuration. Dependents are
// disabled with it during Validate.
func (r *Registry) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[name] = true
}

// Validate checks API versions and dependencies, cascades disabling to
// dependents of disabled modules, and computes the start order.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, info := range r.infos {
		if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
			err := fmt.Errorf("module %q targets API v%d, supported range is v%d..v%d",
				name, info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
			if err := r.disableLocked(name, err); err != nil {
				return err
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, name := range r.sortedNames() {
			if r.disabled[name] {
				continue
			}
			for _, dep := range r.infos[name].Dependencies {
				var cause error
				if _, ok := r.plugins[dep]; !ok {
					cause = fmt.Errorf("module %q depends on %q which is not registered", name, dep)
				} else if r.disabled[dep] {
					cause = fmt.Errorf("module %q depends on %q which is disabled", name, dep)
				}
				if cause == nil {
					continue
				}
				if err := r.disableLocked(name, cause); err != nil {
					return err
				}
				changed = true
				break
			}
		}
	}

	order, err := r.topologicalSort()
	if err != nil {
		return err
	}
	r.order = order
	r.logger.Info("module dependency resolution complete",
		zap.Strings("start_order", order),
		zap.Int("disabled", len(r.disabled)),
	)
	return nil
}

// disableLocked disables an optional module, or returns cause for a required one.
func (r *Registry) disableLocked(name string, cause error) error {
	if r.infos[name].Required {
		return cause
	}
	r.logger.Warn("disabling module", zap.String("name", name), zap.Error(cause))
	r.disabled[name] = true
	return nil
}

// InitAll initializes active modules in dependency order, validates their
// configuration, and wires EventSubscriber subscriptions onto the bus each
// module received. Lifecycle calls run unlocked so modules may resolve
// peers while initializing.
func (r *Registry) InitAll(ctx context.Context, depsFn func(name string) plugin.Dependencies) error {
	for _, name := range r.active() {
		p := r.plugins[name]
		deps := depsFn(name)

		r.logger.Debug("initializing module", zap.String("name", name))
		err := guard(name, "init", func() error { return p.Init(ctx, deps) })
		if err == nil {
			if v, ok := p.(plugin.Validator); ok {
				err = v.ValidateConfig()
			}
		}
		if err != nil {
			if derr := r.disable(name, fmt.Errorf("module %q init: %w", name, err)); derr != nil {
				return derr
			}
			continue
		}

		if sub, ok := p.(plugin.EventSubscriber); ok && deps.Bus != nil {
			for _, s := range sub.Subscriptions() {
				unsub := deps.Bus.Subscribe(s.Topic, s.Handler)
				r.mu.Lock()
				r.unsubs = append(r.unsubs, unsub)
				r.mu.Unlock()
			}
		}
	}
	return nil
}

// StartAll starts initialized modules in dependency order.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, name := range r.active() {
		r.logger.Info("starting module", zap.String("name", name))
		p := r.plugins[name]
		if err := guard(name, "start", func() error { return p.Start(ctx) }); err != nil {
			if derr := r.disable(name, fmt.Errorf("module %q start: %w", name, err)); derr != nil {
				return derr
			}
		}
	}
	return nil
}

// StopAll stops active modules in reverse order and drops event wiring.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}

	names := r.active()
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		p := r.plugins[name]
		if err := guard(name, "stop", func() error { return p.Stop(ctx) }); err != nil {
			r.logger.Error("failed to stop module", zap.String("name", name), zap.Error(err))
		}
	}
}

// active snapshots the enabled modules in start order.
func (r *Registry) active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if !r.disabled[name] {
			out = append(out, name)
		}
	}
	return out
}

func (r *Registry) disable(name string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disableLocked(name, cause)
}

// Resolve returns an active module by name.
func (r *Registry) Resolve(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok || r.disabled[name] {
		return nil, false
	}
	return p, true
}

// ResolveByRole returns active modules declaring role, in start order.
func (r *Registry) ResolveByRole(role string) []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []plugin.Plugin
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		for _, have := range r.infos[name].Roles {
			if have == role {
				out = append(out, r.plugins[name])
				break
			}
		}
	}
	return out
}

// All returns active modules in start order.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		if !r.disabled[name] {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// AllRoutes returns the routes of every active HTTPProvider keyed by module name.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]plugin.Route)
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		if hp, ok := r.plugins[name].(plugin.HTTPProvider); ok {
			if pr := hp.Routes(); len(pr) > 0 {
				routes[name] = pr
			}
		}
	}
	return routes
}

// IsDisabled reports whether name was disabled.
func (r *Registry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[name]
}

// guard turns a panic inside a lifecycle call into an error.
func guard(name, phase string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("module %q panicked during %s: %v", name, phase, rec)
		}
	}()
	return fn()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// topologicalSort orders active modules with Kahn's algorithm. Ties are
// broken alphabetically so the start order is stable between runs.
func (r *Registry) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, name := range r.sortedNames() {
		if r.disabled[name] {
			continue
		}
		inDegree[name] += 0
		for _, dep := range r.infos[name].Dependencies {
			if !r.disabled[dep] {
				inDegree[name]++
				dependents[dep] = append(dependents[dep], name)
			}
		}
	}

	var queue []string
	for name, d := range inDegree {
		if d == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		var ready []string
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(inDegree) {
		var cycled []string
		for name, d := range inDegree {
			if d > 0 {
				cycled = append(cycled, name)
			}
		}
		sort.Strings(cycled)
		return nil, fmt.Errorf("dependency cycle detected among modules: %v", cycled)
	}
	return order, nil
}
