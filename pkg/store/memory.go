package store

import (
	"fmt"
	"sync"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// MemoryStore is an in-memory implementation of Store backed by maps and a
// read/write mutex per sub-store. Suitable for development, testing, and
// single-node deployments.
type MemoryStore struct {
	pops        *memoryPOPStore
	routers     *memoryRouterStore
	interfaces  *memoryInterfaceStore
	links       *memoryLinkStore
	connections *memoryConnectionStore
	vops        *memoryVOpStore
}

// NewMemoryStore returns a fully initialized MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pops:        &memoryPOPStore{data: make(map[string]model.POP)},
		routers:     &memoryRouterStore{data: make(map[string]model.Router)},
		interfaces:  &memoryInterfaceStore{data: make(map[string]model.Interface)},
		links:       &memoryLinkStore{data: make(map[string][]model.Slot), meta: make(map[string]model.Link)},
		connections: &memoryConnectionStore{data: make(map[string]model.Connection)},
		vops:        &memoryVOpStore{data: make(map[string]model.VOp)},
	}
}

func (m *MemoryStore) POPs() POPStore               { return m.pops }
func (m *MemoryStore) Routers() RouterStore         { return m.routers }
func (m *MemoryStore) Interfaces() InterfaceStore   { return m.interfaces }
func (m *MemoryStore) Links() LinkStore             { return m.links }
func (m *MemoryStore) Connections() ConnectionStore { return m.connections }
func (m *MemoryStore) VOps() VOpStore               { return m.vops }

// ---------------------------------------------------------------------------
// POP store
// ---------------------------------------------------------------------------

type memoryPOPStore struct {
	mu   sync.RWMutex
	data map[string]model.POP
}

func (s *memoryPOPStore) List() ([]model.POP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.POP, 0, len(s.data))
	for _, p := range s.data {
		out = append(out, p)
	}
	return out, nil
}

func (s *memoryPOPStore) Get(id string) (*model.POP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("pop %q: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *memoryPOPStore) Create(pop *model.POP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[pop.ID]; exists {
		return fmt.Errorf("pop %q: %w", pop.ID, ErrAlreadyExists)
	}
	s.data[pop.ID] = *pop
	return nil
}

func (s *memoryPOPStore) Update(pop *model.POP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[pop.ID]; !exists {
		return fmt.Errorf("pop %q: %w", pop.ID, ErrNotFound)
	}
	s.data[pop.ID] = *pop
	return nil
}

func (s *memoryPOPStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("pop %q: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

// ---------------------------------------------------------------------------
// Router store
// ---------------------------------------------------------------------------

type memoryRouterStore struct {
	mu   sync.RWMutex
	data map[string]model.Router
}

func (s *memoryRouterStore) List() ([]model.Router, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Router, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, r)
	}
	return out, nil
}

func (s *memoryRouterStore) Get(id string) (*model.Router, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("router %q: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (s *memoryRouterStore) Create(r *model.Router) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[r.ID]; exists {
		return fmt.Errorf("router %q: %w", r.ID, ErrAlreadyExists)
	}
	s.data[r.ID] = *r
	return nil
}

func (s *memoryRouterStore) Update(r *model.Router) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[r.ID]; !exists {
		return fmt.Errorf("router %q: %w", r.ID, ErrNotFound)
	}
	s.data[r.ID] = *r
	return nil
}

func (s *memoryRouterStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("router %q: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

// ---------------------------------------------------------------------------
// Interface store
// ---------------------------------------------------------------------------

type memoryInterfaceStore struct {
	mu   sync.RWMutex
	data map[string]model.Interface
}

func (s *memoryInterfaceStore) List() ([]model.Interface, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Interface, 0, len(s.data))
	for _, i := range s.data {
		out = append(out, i)
	}
	return out, nil
}

func (s *memoryInterfaceStore) Get(id string) (*model.Interface, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	return &i, nil
}

func (s *memoryInterfaceStore) Create(i *model.Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[i.ID]; exists {
		return fmt.Errorf("interface %q: %w", i.ID, ErrAlreadyExists)
	}
	s.data[i.ID] = *i
	return nil
}

func (s *memoryInterfaceStore) Update(i *model.Interface) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[i.ID]; !exists {
		return fmt.Errorf("interface %q: %w", i.ID, ErrNotFound)
	}
	s.data[i.ID] = *i
	return nil
}

func (s *memoryInterfaceStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

func (s *memoryInterfaceStore) Reserve(id, vopID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.data[id]
	if !ok {
		return fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	if i.OwnerVOp != "" && i.OwnerVOp != vopID {
		return fmt.Errorf("interface %q owned by %q: %w", id, i.OwnerVOp, ErrConflict)
	}
	i.OwnerVOp = vopID
	s.data[id] = i
	return nil
}

func (s *memoryInterfaceStore) Release(id, vopID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.data[id]
	if !ok {
		return fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	if i.OwnerVOp != vopID {
		return fmt.Errorf("interface %q not owned by %q: %w", id, vopID, ErrConflict)
	}
	i.OwnerVOp = ""
	s.data[id] = i
	return nil
}

// ---------------------------------------------------------------------------
// Link store
// ---------------------------------------------------------------------------

// memoryLinkStore keeps slot vectors separate from link metadata, mirroring
// the per-slot-key layout EtcdLinkStore uses for its optimistic transaction,
// so Utilization and AllocateSlots behave identically across backends.
type memoryLinkStore struct {
	mu   sync.RWMutex
	meta map[string]model.Link
	data map[string][]model.Slot
}

func (s *memoryLinkStore) List() ([]model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Link, 0, len(s.meta))
	for id, l := range s.meta {
		l.Slots = append([]model.Slot(nil), s.data[id]...)
		out = append(out, l)
	}
	return out, nil
}

func (s *memoryLinkStore) Get(id string) (*model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.meta[id]
	if !ok {
		return nil, fmt.Errorf("link %q: %w", id, ErrNotFound)
	}
	l.Slots = append([]model.Slot(nil), s.data[id]...)
	return &l, nil
}

func (s *memoryLinkStore) Create(link *model.Link, numSlots int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.meta[link.ID]; exists {
		return fmt.Errorf("link %q: %w", link.ID, ErrAlreadyExists)
	}
	slots := make([]model.Slot, numSlots)
	for i := range slots {
		slots[i] = model.Slot{Index: i, Status: model.SlotFree}
	}
	meta := *link
	meta.Slots = nil
	s.meta[link.ID] = meta
	s.data[link.ID] = slots
	return nil
}

func (s *memoryLinkStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.meta[id]; !exists {
		return fmt.Errorf("link %q: %w", id, ErrNotFound)
	}
	delete(s.meta, id)
	delete(s.data, id)
	return nil
}

func (s *memoryLinkStore) Slots(linkID string) ([]model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots, ok := s.data[linkID]
	if !ok {
		return nil, fmt.Errorf("link %q: %w", linkID, ErrNotFound)
	}
	return append([]model.Slot(nil), slots...), nil
}

// AllocateSlots checks every slot on every link first and only commits if
// all are FREE, mirroring the all-or-nothing semantics of EtcdLinkStore's
// multi-key transaction. Slots land RESERVED, not ACTIVE: they only become
// ACTIVE once ActivateSlots confirms setup has been acked.
func (s *memoryLinkStore) AllocateSlots(linkIDs []string, start, count int, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range linkIDs {
		slots, ok := s.data[id]
		if !ok {
			return fmt.Errorf("link %q: %w", id, ErrNotFound)
		}
		if start < 0 || start+count > len(slots) {
			return fmt.Errorf("link %q: slot range out of bounds", id)
		}
		for i := start; i < start+count; i++ {
			if slots[i].Status != model.SlotFree {
				return fmt.Errorf("link %q slot %d: %w", id, i, ErrConflict)
			}
		}
	}
	for _, id := range linkIDs {
		slots := s.data[id]
		for i := start; i < start+count; i++ {
			slots[i].Status = model.SlotReserved
			slots[i].ConnectionID = connID
		}
	}
	return nil
}

// ActivateSlots promotes a RESERVED window to ACTIVE on every link in
// linkIDs, once setup has been acked by every agent.
func (s *memoryLinkStore) ActivateSlots(linkIDs []string, start, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range linkIDs {
		slots, ok := s.data[id]
		if !ok {
			return fmt.Errorf("link %q: %w", id, ErrNotFound)
		}
		if start < 0 || start+count > len(slots) {
			return fmt.Errorf("link %q: slot range out of bounds", id)
		}
		for i := start; i < start+count; i++ {
			if slots[i].Status != model.SlotReserved {
				return fmt.Errorf("link %q slot %d: %w", id, i, ErrConflict)
			}
		}
	}
	for _, id := range linkIDs {
		slots := s.data[id]
		for i := start; i < start+count; i++ {
			slots[i].Status = model.SlotActive
		}
	}
	return nil
}

func (s *memoryLinkStore) ReleaseSlots(linkIDs []string, start, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range linkIDs {
		slots, ok := s.data[id]
		if !ok {
			return fmt.Errorf("link %q: %w", id, ErrNotFound)
		}
		if start < 0 || start+count > len(slots) {
			return fmt.Errorf("link %q: slot range out of bounds", id)
		}
	}
	for _, id := range linkIDs {
		slots := s.data[id]
		for i := start; i < start+count; i++ {
			slots[i].Status = model.SlotFree
			slots[i].ConnectionID = ""
		}
	}
	return nil
}

func (s *memoryLinkStore) Utilization(linkID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots, ok := s.data[linkID]
	if !ok {
		return 0, fmt.Errorf("link %q: %w", linkID, ErrNotFound)
	}
	if len(slots) == 0 {
		return 0, nil
	}
	used := 0
	for _, sl := range slots {
		if sl.Status != model.SlotFree {
			used++
		}
	}
	return float64(used) / float64(len(slots)), nil
}

// ---------------------------------------------------------------------------
// Connection store
// ---------------------------------------------------------------------------

type memoryConnectionStore struct {
	mu   sync.RWMutex
	data map[string]model.Connection
}

func (s *memoryConnectionStore) List(vopID string) ([]model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Connection, 0, len(s.data))
	for _, c := range s.data {
		if vopID == "" || c.VOpID == vopID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memoryConnectionStore) Get(id string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("connection %q: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (s *memoryConnectionStore) Create(c *model.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[c.ID]; exists {
		return fmt.Errorf("connection %q: %w", c.ID, ErrAlreadyExists)
	}
	s.data[c.ID] = *c
	return nil
}

func (s *memoryConnectionStore) Update(c *model.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[c.ID]; !exists {
		return fmt.Errorf("connection %q: %w", c.ID, ErrNotFound)
	}
	s.data[c.ID] = *c
	return nil
}

func (s *memoryConnectionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("connection %q: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

// ---------------------------------------------------------------------------
// VOp store
// ---------------------------------------------------------------------------

type memoryVOpStore struct {
	mu   sync.RWMutex
	data map[string]model.VOp
}

func (s *memoryVOpStore) List() ([]model.VOp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.VOp, 0, len(s.data))
	for _, v := range s.data {
		out = append(out, v)
	}
	return out, nil
}

func (s *memoryVOpStore) Get(id string) (*model.VOp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("vop %q: %w", id, ErrNotFound)
	}
	return &v, nil
}

func (s *memoryVOpStore) Create(v *model.VOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[v.ID]; exists {
		return fmt.Errorf("vop %q: %w", v.ID, ErrAlreadyExists)
	}
	s.data[v.ID] = *v
	return nil
}

func (s *memoryVOpStore) Update(v *model.VOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[v.ID]; !exists {
		return fmt.Errorf("vop %q: %w", v.ID, ErrNotFound)
	}
	s.data[v.ID] = *v
	return nil
}

func (s *memoryVOpStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("vop %q: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}
