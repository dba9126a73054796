// Package linkdb implements the LinkDB component: topology inventory,
// interface reservation, and first-fit contiguous spectrum allocation
// (spec §4.1), translated from original_source's Redis-backed allocator
// onto pkg/store's slot-state vectors.
package linkdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/pathcompute"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/retry"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

// Error kinds distinguished by spec §7: resource-unavailable errors reject
// the allocation outright and never leave a partial reservation.
var (
	ErrNoSpectrum         = errors.New("no contiguous spectrum available on path")
	ErrPathInfeasible     = errors.New("path infeasible")
	ErrInterfaceUnavail   = errors.New("interface unavailable")
)

// Service is the LinkDB component: topology CRUD plus the allocate/release
// pair that owns all spectrum bookkeeping.
type Service struct {
	store store.Store
}

// NewService returns a Service backed by s.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// CreatePOP, CreateRouter, CreateLink, and CreateInterface are thin
// validating wrappers over the store, matching spec §4.1's "create/list/
// delete POP, Router, Link" public operations.

func (svc *Service) CreatePOP(pop *model.POP) error {
	return svc.store.POPs().Create(pop)
}

func (svc *Service) ListPOPs() ([]model.POP, error) {
	return svc.store.POPs().List()
}

func (svc *Service) DeletePOP(id string) error {
	return svc.store.POPs().Delete(id)
}

func (svc *Service) CreateRouter(r *model.Router) error {
	if _, err := svc.store.POPs().Get(r.POPID); err != nil {
		return fmt.Errorf("router %q: pop %q: %w", r.ID, r.POPID, err)
	}
	return svc.store.Routers().Create(r)
}

func (svc *Service) ListRouters() ([]model.Router, error) {
	return svc.store.Routers().List()
}

// CreateLink registers a physical link and initializes numSlots FREE slots.
func (svc *Service) CreateLink(link *model.Link, numSlots int) error {
	if numSlots <= 0 {
		return fmt.Errorf("link %q: numSlots must be positive", link.ID)
	}
	return svc.store.Links().Create(link, numSlots)
}

func (svc *Service) ListLinks() ([]model.Link, error) {
	return svc.store.Links().List()
}

func (svc *Service) DeleteLink(id string) error {
	return svc.store.Links().Delete(id)
}

func (svc *Service) CreateInterface(i *model.Interface) error {
	return svc.store.Interfaces().Create(i)
}

// ReserveInterface grants vopID exclusive use of interface id, enforcing
// interface exclusivity (spec §8: owner cardinality ≤ 1).
func (svc *Service) ReserveInterface(id, vopID string) error {
	if err := svc.store.Interfaces().Reserve(id, vopID); err != nil {
		return fmt.Errorf("%w: %v", ErrInterfaceUnavail, err)
	}
	return nil
}

// ReleaseInterface relinquishes vopID's ownership of interface id.
func (svc *Service) ReleaseInterface(id, vopID string) error {
	return svc.store.Interfaces().Release(id, vopID)
}

// GetTopology returns every POP, Router, Link, and Interface for path
// computation and operator inspection.
type Topology struct {
	POPs       []model.POP
	Routers    []model.Router
	Links      []model.Link
	Interfaces []model.Interface
}

func (svc *Service) GetTopology() (*Topology, error) {
	pops, err := svc.store.POPs().List()
	if err != nil {
		return nil, err
	}
	routers, err := svc.store.Routers().List()
	if err != nil {
		return nil, err
	}
	links, err := svc.store.Links().List()
	if err != nil {
		return nil, err
	}
	ifaces, err := svc.store.Interfaces().List()
	if err != nil {
		return nil, err
	}
	return &Topology{POPs: pops, Routers: routers, Links: links, Interfaces: ifaces}, nil
}

// Path computes the k-shortest paths (by link distance) from src to dst.
func (svc *Service) Path(src, dst string, k int) ([][]model.PathHop, error) {
	links, err := svc.store.Links().List()
	if err != nil {
		return nil, err
	}
	graph := pathcompute.BuildGraph(links)
	paths, err := graph.KShortestPaths(src, dst, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathInfeasible, err)
	}
	return paths, nil
}

// Allocate runs first-fit: it reads the free-slot vector for every link on
// path, intersects them, scans for the first contiguous window of
// slotsRequired width, then commits that window with the store's
// optimistic multi-key transaction. On ErrConflict from a losing race it
// retries the whole read-scan-commit cycle with bounded backoff
// (spec §4.1's "watch the slot keys, commit, retry").
func (svc *Service) Allocate(ctx context.Context, connectionID string, path []model.PathHop, slotsRequired int) (model.SlotRange, error) {
	if len(path) == 0 {
		return model.SlotRange{}, fmt.Errorf("%w: empty path", ErrPathInfeasible)
	}
	linkIDs := make([]string, len(path))
	for i, hop := range path {
		linkIDs[i] = hop.LinkID
	}

	var window model.SlotRange
	err := retry.Do(ctx, func() error {
		start, found, err := svc.firstFit(linkIDs, slotsRequired)
		if err != nil {
			return retry.Permanent(err)
		}
		if !found {
			return retry.Permanent(ErrNoSpectrum)
		}
		allocErr := svc.store.Links().AllocateSlots(linkIDs, start, slotsRequired, connectionID)
		if allocErr != nil {
			if errors.Is(allocErr, store.ErrConflict) {
				return allocErr // retryable: another allocator won the race, rescan and retry
			}
			return retry.Permanent(allocErr)
		}
		window = model.SlotRange{StartIndex: start, Count: slotsRequired}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoSpectrum) {
			return model.SlotRange{}, err
		}
		return model.SlotRange{}, fmt.Errorf("allocate on path for %s: %w", connectionID, err)
	}
	return window, nil
}

// firstFit intersects the FREE-slot sets of every link in linkIDs and
// returns the first index at which a contiguous run of width slots is
// free across all of them.
func (svc *Service) firstFit(linkIDs []string, width int) (int, bool, error) {
	var free []bool
	for _, id := range linkIDs {
		slots, err := svc.store.Links().Slots(id)
		if err != nil {
			return 0, false, err
		}
		if free == nil {
			free = make([]bool, len(slots))
			for i := range free {
				free[i] = true
			}
		}
		if len(slots) != len(free) {
			return 0, false, fmt.Errorf("%w: link %q has a mismatched slot grid", ErrPathInfeasible, id)
		}
		for i, s := range slots {
			if s.Status != model.SlotFree {
				free[i] = false
			}
		}
	}
	if len(free) < width {
		return 0, false, nil
	}
	run := 0
	for i, ok := range free {
		if ok {
			run++
			if run >= width {
				return i - width + 1, true, nil
			}
		} else {
			run = 0
		}
	}
	return 0, false, nil
}

// Activate promotes a connection's RESERVED slot window to ACTIVE on every
// link in linkIDs, once the Controller has every agent's setup ack.
func (svc *Service) Activate(linkIDs []string, window model.SlotRange) error {
	return svc.store.Links().ActivateSlots(linkIDs, window.StartIndex, window.Count)
}

// Release returns the slots a connection was holding back to FREE on every
// link in path.
func (svc *Service) Release(linkIDs []string, window model.SlotRange) error {
	return svc.store.Links().ReleaseSlots(linkIDs, window.StartIndex, window.Count)
}

// Utilization reports the fraction of a link's slots that are not FREE,
// restored from original_source's get_link_utilization.
func (svc *Service) Utilization(linkID string) (float64, error) {
	return svc.store.Links().Utilization(linkID)
}
