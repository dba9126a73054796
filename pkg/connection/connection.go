// Package connection owns the per-connection lifecycle state machine a
// Controller runs for its vOp (spec §4.3.1): one map entry per connection,
// every transition funneled through Apply so no two goroutines race on a
// connection's fields, restored from original_source's
// connection_manager.py state-transition table.
package connection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// Event is a trigger that may move a connection from one status to
// another. Not every event is valid from every status; Manager.Apply
// consults transitions to decide.
type Event string

const (
	EventPlanned           Event = "planned"
	EventSetupRequested    Event = "setup_requested"
	EventSetupCompleted    Event = "setup_completed"
	EventSetupFailed       Event = "setup_failed"
	EventDegradationFound  Event = "degradation_detected"
	EventReconfigRequested Event = "reconfig_requested"
	EventReconfigCompleted Event = "reconfig_completed"
	EventReconfigFailed    Event = "reconfig_failed"
	EventTeardownRequested Event = "teardown_requested"
	EventTeardownCompleted Event = "teardown_completed"
	EventTeardownFailed    Event = "teardown_failed"
)

// ErrInvalidTransition is returned when an event does not apply to a
// connection's current status.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrNotFound is returned for operations on an unknown connection id.
var ErrNotFound = errors.New("connection not found")

// transitions is the state table from original_source's
// ConnectionManager.STATE_TRANSITIONS, translated onto model.ConnectionStatus.
var transitions = map[model.ConnectionStatus]map[Event]model.ConnectionStatus{
	model.ConnPlanned: {
		EventSetupRequested: model.ConnSetupPending,
		EventSetupFailed:    model.ConnFailed,
	},
	model.ConnSetupPending: {
		EventSetupCompleted:    model.ConnActive,
		EventSetupFailed:       model.ConnFailed,
		EventTeardownRequested: model.ConnTeardown,
	},
	model.ConnActive: {
		EventDegradationFound:  model.ConnDegraded,
		EventReconfigRequested: model.ConnReconfigPending,
		EventTeardownRequested: model.ConnTeardown,
	},
	model.ConnDegraded: {
		EventReconfigRequested: model.ConnReconfigPending,
		EventTeardownRequested: model.ConnTeardown,
	},
	model.ConnReconfigPending: {
		EventReconfigCompleted: model.ConnActive,
		EventReconfigFailed:    model.ConnDegraded,
		EventTeardownRequested: model.ConnTeardown,
	},
	model.ConnTeardown: {
		EventTeardownCompleted: model.ConnDeleted,
		EventTeardownFailed:    model.ConnFailed,
	},
	model.ConnFailed: {
		EventTeardownRequested: model.ConnTeardown,
	},
	model.ConnDeleted: {},
}

// Manager owns every in-flight connection for one vOp's Controller.
type Manager struct {
	mu    sync.Mutex
	conns map[string]*model.Connection
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{conns: make(map[string]*model.Connection)}
}

// Create registers a new connection at status IDLE, the entry point before
// a path has been computed for it.
func (m *Manager) Create(c *model.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Status = model.ConnIdle
	now := timeNow()
	c.CreatedAt, c.UpdatedAt = now, now
	m.conns[c.ID] = c
}

// Get returns a copy of a connection's current state.
func (m *Manager) Get(id string) (model.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return model.Connection{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *c, nil
}

// List returns a snapshot of every known connection.
func (m *Manager) List() []model.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, *c)
	}
	return out
}

// Delete removes a connection entirely, used once teardown completes and
// the record no longer needs to be tracked in memory.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

// Mutate applies fn to the connection's stored record under the manager's
// lock, for updates (path, slots, acks) that accompany a transition but
// are not themselves a status change.
func (m *Manager) Mutate(id string, fn func(c *model.Connection)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(c)
	c.UpdatedAt = timeNow()
	return nil
}

// Apply transitions a connection on event ev, returning its new status.
// It is the single entry point every transition in spec §4.3.1 must pass
// through — nothing else mutates c.Status directly.
func (m *Manager) Apply(id string, ev Event) (model.ConnectionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Plan is the one transition out of IDLE, not modeled in the
	// original's table since IDLE only exists before a path is computed.
	if c.Status == model.ConnIdle && ev == EventPlanned {
		c.Status = model.ConnPlanned
		c.UpdatedAt = timeNow()
		return c.Status, nil
	}

	next, ok := transitions[c.Status][ev]
	if !ok {
		return c.Status, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, ev)
	}
	c.Status = next
	c.UpdatedAt = timeNow()
	if ev == EventReconfigRequested {
		c.PendingCommandID = ""
	}
	return c.Status, nil
}

// timeNow is a seam so tests could inject a fixed clock; production always
// uses the wall clock.
var timeNow = func() time.Time { return time.Now().UTC() }
