package listener

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/farmtech/irrigation/pkg/roles"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("listener not found")
	ErrInvalidName = errors.New("listener name must be 1-64 letters, digits, '-' or '_'")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Manager tracks listeners by name.
type Manager struct {
	sink     roles.ReadingSink
	decide   DecideFunc
	interval time.Duration
	seed     uint64
	logger   *zap.Logger

	mu        sync.Mutex
	listeners map[string]*Listener
}

// NewManager creates a manager whose listeners record into sink.
// defaultInterval applies when Create is given no interval. A non-zero
// seed makes every listener's simulator deterministic.
func NewManager(sink roles.ReadingSink, decide DecideFunc, defaultInterval time.Duration, seed uint64, logger *zap.Logger) *Manager {
	return &Manager{
		sink:      sink,
		decide:    decide,
		interval:  defaultInterval,
		seed:      seed,
		logger:    logger,
		listeners: make(map[string]*Listener),
	}
}

// Create registers a stopped listener. If name already exists the existing
// listener is returned with created false.
func (m *Manager) Create(name string, interval time.Duration) (l *Listener, created bool, err error) {
	if !namePattern.MatchString(name) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.listeners[name]; ok {
		m.logger.Warn("listener already exists", zap.String("listener", name))
		return existing, false, nil
	}
	if interval <= 0 {
		interval = m.interval
	}
	if interval < MinInterval {
		m.logger.Warn("listener interval raised to minimum",
			zap.String("listener", name),
			zap.Duration("requested", interval),
			zap.Duration("minimum", MinInterval),
		)
	}
	seed := m.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	l = newListener(name, interval, NewSimulator(seed), m.sink, m.decide, m.logger)
	m.listeners[name] = l
	m.logger.Info("listener created", zap.String("listener", name))
	return l, true, nil
}

// Get returns the named listener.
func (m *Manager) Get(name string) (*Listener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listeners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return l, nil
}

// Start starts the named listener, creating it with the default interval
// when it does not exist yet.
func (m *Manager) Start(name string) (*Listener, error) {
	l, _, err := m.Create(name, 0)
	if err != nil {
		return nil, err
	}
	l.Start()
	return l, nil
}

// Stop stops the named listener.
func (m *Manager) Stop(name string) error {
	l, err := m.Get(name)
	if err != nil {
		return err
	}
	l.Stop()
	return nil
}

// Pause suspends sampling on the named listener.
func (m *Manager) Pause(name string) error {
	l, err := m.Get(name)
	if err != nil {
		return err
	}
	l.Pause()
	return nil
}

// Resume re-enables sampling on the named listener.
func (m *Manager) Resume(name string) error {
	l, err := m.Get(name)
	if err != nil {
		return err
	}
	l.Resume()
	return nil
}

// Status returns the named listener's status.
func (m *Manager) Status(name string) (Status, error) {
	l, err := m.Get(name)
	if err != nil {
		return Status{}, err
	}
	return l.Status(), nil
}

// List returns every listener's status ordered by name.
func (m *Manager) List() []Status {
	ls := m.snapshot()
	out := make([]Status, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Remove stops and forgets the named listener.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	l, ok := m.listeners[name]
	delete(m.listeners, name)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	l.Stop()
	m.logger.Info("listener removed", zap.String("listener", name))
	return nil
}

// StopAll stops every listener and waits for them to finish.
func (m *Manager) StopAll() {
	var wg sync.WaitGroup
	for _, l := range m.snapshot() {
		wg.Add(1)
		go func(l *Listener) {
			defer wg.Done()
			l.Stop()
		}(l)
	}
	wg.Wait()
}

// Running counts listeners whose loop is active.
func (m *Manager) Running() int {
	n := 0
	for _, l := range m.snapshot() {
		if l.Status().Running {
			n++
		}
	}
	return n
}

func (m *Manager) snapshot() []*Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}
