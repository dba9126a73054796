package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// Key-space constants. Every key lives under /ipowdm/v1/ to avoid collisions
// with other etcd tenants sharing the cluster.
const keyPrefix = "/ipowdm/v1"

func key(storeType, id string) string {
	return fmt.Sprintf("%s/%s/%s", keyPrefix, storeType, id)
}

func prefix(storeType string) string {
	return fmt.Sprintf("%s/%s/", keyPrefix, storeType)
}

func slotKey(linkID string, index int) string {
	return fmt.Sprintf("%s/slots/%s/%06d", keyPrefix, linkID, index)
}

func slotPrefix(linkID string) string {
	return fmt.Sprintf("%s/slots/%s/", keyPrefix, linkID)
}

// ---------------------------------------------------------------------------
// EtcdStore
// ---------------------------------------------------------------------------

// EtcdStore is an etcd-backed implementation of Store for multi-replica
// control plane deployments. Spectrum allocation is serialized through
// etcd's transactional compare-and-swap rather than an in-process mutex, so
// concurrent LinkDB replicas cannot double-book the same slot (spec §4.1).
type EtcdStore struct {
	client      *clientv3.Client
	pops        *EtcdPOPStore
	routers     *EtcdRouterStore
	interfaces  *EtcdInterfaceStore
	links       *EtcdLinkStore
	connections *EtcdConnectionStore
	vops        *EtcdVOpStore
}

// NewEtcdStore dials the etcd cluster at endpoints and returns a ready
// EtcdStore. The caller must call Close when finished.
func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd dial: %w", err)
	}
	return &EtcdStore{
		client:      client,
		pops:        &EtcdPOPStore{client: client},
		routers:     &EtcdRouterStore{client: client},
		interfaces:  &EtcdInterfaceStore{client: client},
		links:       &EtcdLinkStore{client: client},
		connections: &EtcdConnectionStore{client: client},
		vops:        &EtcdVOpStore{client: client},
	}, nil
}

func (s *EtcdStore) POPs() POPStore               { return s.pops }
func (s *EtcdStore) Routers() RouterStore         { return s.routers }
func (s *EtcdStore) Interfaces() InterfaceStore   { return s.interfaces }
func (s *EtcdStore) Links() LinkStore             { return s.links }
func (s *EtcdStore) Connections() ConnectionStore { return s.connections }
func (s *EtcdStore) VOps() VOpStore               { return s.vops }

// Close releases the underlying etcd client connection.
func (s *EtcdStore) Close() error { return s.client.Close() }

// ---------------------------------------------------------------------------
// generic helpers
// ---------------------------------------------------------------------------

func background() context.Context { return context.Background() }

func etcdPut(ctx context.Context, client *clientv3.Client, k string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := client.Put(ctx, k, string(data)); err != nil {
		return fmt.Errorf("etcd put %q: %w", k, err)
	}
	return nil
}

func etcdGet(ctx context.Context, client *clientv3.Client, k string, v any) (bool, error) {
	resp, err := client.Get(ctx, k)
	if err != nil {
		return false, fmt.Errorf("etcd get %q: %w", k, err)
	}
	if len(resp.Kvs) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(resp.Kvs[0].Value, v); err != nil {
		return false, fmt.Errorf("unmarshal %q: %w", k, err)
	}
	return true, nil
}

// etcdGetRev is like etcdGet but also returns the key's ModRevision, for
// callers that build a compare-and-swap on top of the read.
func etcdGetRev(ctx context.Context, client *clientv3.Client, k string, v any) (bool, int64, error) {
	resp, err := client.Get(ctx, k)
	if err != nil {
		return false, 0, fmt.Errorf("etcd get %q: %w", k, err)
	}
	if len(resp.Kvs) == 0 {
		return false, 0, nil
	}
	if err := json.Unmarshal(resp.Kvs[0].Value, v); err != nil {
		return false, 0, fmt.Errorf("unmarshal %q: %w", k, err)
	}
	return true, resp.Kvs[0].ModRevision, nil
}

func etcdList[T any](ctx context.Context, client *clientv3.Client, pfx string) ([]T, error) {
	resp, err := client.Get(ctx, pfx, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd list %q: %w", pfx, err)
	}
	out := make([]T, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var item T
		if err := json.Unmarshal(kv.Value, &item); err != nil {
			return nil, fmt.Errorf("unmarshal %q: %w", string(kv.Key), err)
		}
		out = append(out, item)
	}
	return out, nil
}

func etcdCreateIfNotExists(ctx context.Context, client *clientv3.Client, k string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	txn := client.Txn(ctx).
		If(clientv3.Compare(clientv3.Version(k), "=", 0)).
		Then(clientv3.OpPut(k, string(data)))
	resp, err := txn.Commit()
	if err != nil {
		return fmt.Errorf("etcd txn create %q: %w", k, err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("%q: %w", k, ErrAlreadyExists)
	}
	return nil
}

func etcdDelete(ctx context.Context, client *clientv3.Client, k string) error {
	resp, err := client.Delete(ctx, k)
	if err != nil {
		return fmt.Errorf("etcd delete %q: %w", k, err)
	}
	if resp.Deleted == 0 {
		return fmt.Errorf("%q: %w", k, ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// EtcdPOPStore
// ---------------------------------------------------------------------------

type EtcdPOPStore struct{ client *clientv3.Client }

func (s *EtcdPOPStore) List() ([]model.POP, error) {
	return etcdList[model.POP](background(), s.client, prefix("pops"))
}

func (s *EtcdPOPStore) Get(id string) (*model.POP, error) {
	var p model.POP
	found, err := etcdGet(background(), s.client, key("pops", id), &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("pop %q: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (s *EtcdPOPStore) Create(pop *model.POP) error {
	return etcdCreateIfNotExists(background(), s.client, key("pops", pop.ID), pop)
}

func (s *EtcdPOPStore) Update(pop *model.POP) error {
	if _, err := s.Get(pop.ID); err != nil {
		return err
	}
	return etcdPut(background(), s.client, key("pops", pop.ID), pop)
}

func (s *EtcdPOPStore) Delete(id string) error {
	return etcdDelete(background(), s.client, key("pops", id))
}

// ---------------------------------------------------------------------------
// EtcdRouterStore
// ---------------------------------------------------------------------------

type EtcdRouterStore struct{ client *clientv3.Client }

func (s *EtcdRouterStore) List() ([]model.Router, error) {
	return etcdList[model.Router](background(), s.client, prefix("routers"))
}

func (s *EtcdRouterStore) Get(id string) (*model.Router, error) {
	var r model.Router
	found, err := etcdGet(background(), s.client, key("routers", id), &r)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("router %q: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (s *EtcdRouterStore) Create(r *model.Router) error {
	return etcdCreateIfNotExists(background(), s.client, key("routers", r.ID), r)
}

func (s *EtcdRouterStore) Update(r *model.Router) error {
	if _, err := s.Get(r.ID); err != nil {
		return err
	}
	return etcdPut(background(), s.client, key("routers", r.ID), r)
}

func (s *EtcdRouterStore) Delete(id string) error {
	return etcdDelete(background(), s.client, key("routers", id))
}

// ---------------------------------------------------------------------------
// EtcdInterfaceStore
// ---------------------------------------------------------------------------

type EtcdInterfaceStore struct{ client *clientv3.Client }

func (s *EtcdInterfaceStore) List() ([]model.Interface, error) {
	return etcdList[model.Interface](background(), s.client, prefix("interfaces"))
}

func (s *EtcdInterfaceStore) Get(id string) (*model.Interface, error) {
	var i model.Interface
	found, err := etcdGet(background(), s.client, key("interfaces", id), &i)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	return &i, nil
}

func (s *EtcdInterfaceStore) Create(i *model.Interface) error {
	return etcdCreateIfNotExists(background(), s.client, key("interfaces", i.ID), i)
}

func (s *EtcdInterfaceStore) Update(i *model.Interface) error {
	if _, err := s.Get(i.ID); err != nil {
		return err
	}
	return etcdPut(background(), s.client, key("interfaces", i.ID), i)
}

func (s *EtcdInterfaceStore) Delete(id string) error {
	return etcdDelete(background(), s.client, key("interfaces", id))
}

// Reserve reads the interface, checks ownership, and writes the new owner
// inside a transaction compared on the key's ModRevision so a concurrent
// reserve from another replica aborts cleanly instead of clobbering.
func (s *EtcdInterfaceStore) Reserve(id, vopID string) error {
	ctx := background()
	k := key("interfaces", id)
	var iface model.Interface
	found, rev, err := etcdGetRev(ctx, s.client, k, &iface)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	if iface.OwnerVOp != "" && iface.OwnerVOp != vopID {
		return fmt.Errorf("interface %q owned by %q: %w", id, iface.OwnerVOp, ErrConflict)
	}
	iface.OwnerVOp = vopID
	data, err := json.Marshal(iface)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(k), "=", rev)).
		Then(clientv3.OpPut(k, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("etcd txn reserve %q: %w", id, err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("interface %q: %w", id, ErrConflict)
	}
	return nil
}

func (s *EtcdInterfaceStore) Release(id, vopID string) error {
	ctx := background()
	k := key("interfaces", id)
	var iface model.Interface
	found, rev, err := etcdGetRev(ctx, s.client, k, &iface)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("interface %q: %w", id, ErrNotFound)
	}
	if iface.OwnerVOp != vopID {
		return fmt.Errorf("interface %q not owned by %q: %w", id, vopID, ErrConflict)
	}
	iface.OwnerVOp = ""
	data, err := json.Marshal(iface)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(k), "=", rev)).
		Then(clientv3.OpPut(k, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("etcd txn release %q: %w", id, err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("interface %q: %w", id, ErrConflict)
	}
	return nil
}

// ---------------------------------------------------------------------------
// EtcdLinkStore
// ---------------------------------------------------------------------------

type EtcdLinkStore struct{ client *clientv3.Client }

func (s *EtcdLinkStore) List() ([]model.Link, error) {
	metas, err := etcdList[model.Link](background(), s.client, prefix("links"))
	if err != nil {
		return nil, err
	}
	for i := range metas {
		slots, err := s.Slots(metas[i].ID)
		if err != nil {
			return nil, err
		}
		metas[i].Slots = slots
	}
	return metas, nil
}

func (s *EtcdLinkStore) Get(id string) (*model.Link, error) {
	var l model.Link
	found, err := etcdGet(background(), s.client, key("links", id), &l)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("link %q: %w", id, ErrNotFound)
	}
	slots, err := s.Slots(id)
	if err != nil {
		return nil, err
	}
	l.Slots = slots
	return &l, nil
}

func (s *EtcdLinkStore) Create(link *model.Link, numSlots int) error {
	ctx := background()
	meta := *link
	meta.Slots = nil
	if err := etcdCreateIfNotExists(ctx, s.client, key("links", link.ID), &meta); err != nil {
		return err
	}
	for i := 0; i < numSlots; i++ {
		slot := model.Slot{Index: i, Status: model.SlotFree}
		if err := etcdPut(ctx, s.client, slotKey(link.ID, i), &slot); err != nil {
			return err
		}
	}
	return nil
}

func (s *EtcdLinkStore) Delete(id string) error {
	ctx := background()
	if _, err := s.client.Delete(ctx, slotPrefix(id), clientv3.WithPrefix()); err != nil {
		return fmt.Errorf("etcd delete slots %q: %w", id, err)
	}
	return etcdDelete(ctx, s.client, key("links", id))
}

func (s *EtcdLinkStore) Slots(linkID string) ([]model.Slot, error) {
	return etcdList[model.Slot](background(), s.client, slotPrefix(linkID))
}

// AllocateSlots builds one etcd transaction comparing the ModRevision of
// every slot key on every link against the value read moments earlier, then
// puts the updated slots only if every compare still holds. This is the
// multi-key generalization of the single-key create-if-not-exists pattern:
// the whole path's spectrum window commits atomically or not at all. Slots
// land RESERVED; ActivateSlots promotes them to ACTIVE once setup is acked.
func (s *EtcdLinkStore) AllocateSlots(linkIDs []string, start, count int, connID string) error {
	return s.transactSlots(linkIDs, start, count, func(slot *model.Slot) error {
		if slot.Status != model.SlotFree {
			return ErrConflict
		}
		slot.Status = model.SlotReserved
		slot.ConnectionID = connID
		return nil
	})
}

// ActivateSlots promotes a RESERVED window to ACTIVE on every link in
// linkIDs, once setup has been acked by every agent.
func (s *EtcdLinkStore) ActivateSlots(linkIDs []string, start, count int) error {
	return s.transactSlots(linkIDs, start, count, func(slot *model.Slot) error {
		if slot.Status != model.SlotReserved {
			return ErrConflict
		}
		slot.Status = model.SlotActive
		return nil
	})
}

func (s *EtcdLinkStore) ReleaseSlots(linkIDs []string, start, count int) error {
	return s.transactSlots(linkIDs, start, count, func(slot *model.Slot) error {
		slot.Status = model.SlotFree
		slot.ConnectionID = ""
		return nil
	})
}

// transactSlots reads every (link, index) slot in range, applies mutate to
// each in memory, then commits all writes in a single Txn conditioned on
// every slot's ModRevision staying unchanged since the read.
func (s *EtcdLinkStore) transactSlots(linkIDs []string, start, count int, mutate func(*model.Slot) error) error {
	ctx := background()
	type keyed struct {
		k    string
		rev  int64
		slot model.Slot
	}
	var entries []keyed
	for _, id := range linkIDs {
		for i := start; i < start+count; i++ {
			k := slotKey(id, i)
			var slot model.Slot
			found, rev, err := etcdGetRev(ctx, s.client, k, &slot)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("link %q slot %d: %w", id, i, ErrNotFound)
			}
			if err := mutate(&slot); err != nil {
				return fmt.Errorf("link %q slot %d: %w", id, i, err)
			}
			entries = append(entries, keyed{k: k, rev: rev, slot: slot})
		}
	}

	cmps := make([]clientv3.Cmp, 0, len(entries))
	ops := make([]clientv3.Op, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.slot)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		cmps = append(cmps, clientv3.Compare(clientv3.ModRevision(e.k), "=", e.rev))
		ops = append(ops, clientv3.OpPut(e.k, string(data)))
	}

	resp, err := s.client.Txn(ctx).If(cmps...).Then(ops...).Commit()
	if err != nil {
		return fmt.Errorf("etcd txn slots: %w", err)
	}
	if !resp.Succeeded {
		return ErrConflict
	}
	return nil
}

func (s *EtcdLinkStore) Utilization(linkID string) (float64, error) {
	slots, err := s.Slots(linkID)
	if err != nil {
		return 0, err
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
// EtcdConnectionStore
// ---------------------------------------------------------------------------

type EtcdConnectionStore struct{ client *clientv3.Client }

func (s *EtcdConnectionStore) List(vopID string) ([]model.Connection, error) {
	all, err := etcdList[model.Connection](background(), s.client, prefix("connections"))
	if err != nil {
		return nil, err
	}
	if vopID == "" {
		return all, nil
	}
	out := make([]model.Connection, 0, len(all))
	for _, c := range all {
		if c.VOpID == vopID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *EtcdConnectionStore) Get(id string) (*model.Connection, error) {
	var c model.Connection
	found, err := etcdGet(background(), s.client, key("connections", id), &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("connection %q: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (s *EtcdConnectionStore) Create(c *model.Connection) error {
	return etcdCreateIfNotExists(background(), s.client, key("connections", c.ID), c)
}

func (s *EtcdConnectionStore) Update(c *model.Connection) error {
	if _, err := s.Get(c.ID); err != nil {
		return err
	}
	return etcdPut(background(), s.client, key("connections", c.ID), c)
}

func (s *EtcdConnectionStore) Delete(id string) error {
	return etcdDelete(background(), s.client, key("connections", id))
}

// ---------------------------------------------------------------------------
// EtcdVOpStore
// ---------------------------------------------------------------------------

type EtcdVOpStore struct{ client *clientv3.Client }

func (s *EtcdVOpStore) List() ([]model.VOp, error) {
	return etcdList[model.VOp](background(), s.client, prefix("vops"))
}

func (s *EtcdVOpStore) Get(id string) (*model.VOp, error) {
	var v model.VOp
	found, err := etcdGet(background(), s.client, key("vops", id), &v)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("vop %q: %w", id, ErrNotFound)
	}
	return &v, nil
}

func (s *EtcdVOpStore) Create(v *model.VOp) error {
	return etcdCreateIfNotExists(background(), s.client, key("vops", v.ID), v)
}

func (s *EtcdVOpStore) Update(v *model.VOp) error {
	if _, err := s.Get(v.ID); err != nil {
		return err
	}
	return etcdPut(background(), s.client, key("vops", v.ID), v)
}

func (s *EtcdVOpStore) Delete(id string) error {
	return etcdDelete(background(), s.client, key("vops", id))
}
