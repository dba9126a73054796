// Package store defines the persistence interfaces for the IPoWDM control
// plane. Implementations include an in-memory store (dev/testing) and an
// etcd-backed store (production, spec §4.1's optimistic-transaction model).
package store

import (
	"errors"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// Sentinel errors returned by every store implementation, so callers in
// pkg/linkdb and pkg/sliceman can branch without caring which backend is
// in use.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned by AllocateSlots/ReleaseSlots when the
	// optimistic transaction lost a race; callers retry with a fresh
	// first-fit search (spec §4.1).
	ErrConflict = errors.New("concurrent modification, retry")
)

// POPStore provides CRUD operations for POP records.
type POPStore interface {
	List() ([]model.POP, error)
	Get(id string) (*model.POP, error)
	Create(pop *model.POP) error
	Update(pop *model.POP) error
	Delete(id string) error
}

// RouterStore provides CRUD operations for Router records.
type RouterStore interface {
	List() ([]model.Router, error)
	Get(id string) (*model.Router, error)
	Create(r *model.Router) error
	Update(r *model.Router) error
	Delete(id string) error
}

// InterfaceStore provides CRUD operations for Interface records, plus the
// reserve/release pair Slice Manager uses to grant a vOp exclusive use of
// a port (spec §4.2).
type InterfaceStore interface {
	List() ([]model.Interface, error)
	Get(id string) (*model.Interface, error)
	Create(i *model.Interface) error
	Update(i *model.Interface) error
	Delete(id string) error
	// Reserve atomically sets OwnerVOp if the interface is currently
	// unowned. Returns ErrConflict if another vOp already owns it.
	Reserve(id, vopID string) error
	// Release clears OwnerVOp if it currently equals vopID.
	Release(id, vopID string) error
}

// LinkStore provides CRUD operations for Link records and the spectrum
// allocation primitives that back first-fit assignment.
type LinkStore interface {
	List() ([]model.Link, error)
	Get(id string) (*model.Link, error)
	// Create writes a new Link and initializes numSlots FREE slots on it.
	Create(link *model.Link, numSlots int) error
	Delete(id string) error
	// Slots returns the current slot vector for a link.
	Slots(linkID string) ([]model.Slot, error)
	// AllocateSlots marks [start, start+count) RESERVED with connID on every
	// link in linkIDs, inside one optimistic transaction keyed on each
	// slot's revision. All slots across all links must be FREE or the
	// whole operation fails with ErrConflict and nothing is written.
	AllocateSlots(linkIDs []string, start, count int, connID string) error
	// ActivateSlots promotes [start, start+count) from RESERVED to ACTIVE
	// on every link in linkIDs, once setup has been acked by every agent.
	ActivateSlots(linkIDs []string, start, count int) error
	// ReleaseSlots marks [start, start+count) FREE on every link in
	// linkIDs, clearing ConnectionID.
	ReleaseSlots(linkIDs []string, start, count int) error
	// Utilization returns the fraction of slots on linkID that are not FREE.
	Utilization(linkID string) (float64, error)
}

// ConnectionStore provides CRUD operations for Connection records.
type ConnectionStore interface {
	List(vopID string) ([]model.Connection, error)
	Get(id string) (*model.Connection, error)
	Create(c *model.Connection) error
	Update(c *model.Connection) error
	Delete(id string) error
}

// VOpStore provides CRUD operations for VOp (tenant slice) records.
type VOpStore interface {
	List() ([]model.VOp, error)
	Get(id string) (*model.VOp, error)
	Create(v *model.VOp) error
	Update(v *model.VOp) error
	Delete(id string) error
}

// Store aggregates every sub-store into a single handle, following the
// per-type sub-store pattern: one accessor per domain entity.
type Store interface {
	POPs() POPStore
	Routers() RouterStore
	Interfaces() InterfaceStore
	Links() LinkStore
	Connections() ConnectionStore
	VOps() VOpStore
}
