// Package sliceman implements the Slice Manager component: vOp activation
// and deactivation (spec §4.2), expressed as an explicit, reversible saga —
// each step pushes a compensating action, and any failure after that point
// unwinds the stack in reverse order rather than leaving partial state.
package sliceman

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/kafkaio"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/store"
)

// vopIDPattern is spec §4.2's required vOp id shape.
var vopIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	ErrInvalidVOpID       = errors.New("invalid vop id")
	ErrAlreadyActive      = errors.New("vop already active")
	ErrInterfaceUnavailable = errors.New("interface unavailable")
)

// TopicProvisioner is the subset of kafkaio.TopicAdmin the activation saga
// needs; narrowed to an interface so tests can substitute a fake broker.
type TopicProvisioner interface {
	EnsureTopics(ctx context.Context, specs []kafkaio.TopicSpec) error
}

// Service is the Slice Manager: vOp lifecycle plus the interface/topic
// provisioning its activation saga drives.
type Service struct {
	vops       store.VOpStore
	linkdb     *linkdbclient.Client
	topics     TopicProvisioner
	partitions int
	replicas   int
	monitorTTLms int64
}

// Options configures topic provisioning defaults (spec §6's configuration
// table, restored for topic creation in SPEC_FULL §9's Open Question
// resolution on retention/compaction).
type Options struct {
	Partitions            int
	ReplicationFactor     int
	MonitoringRetentionMs int64
}

// New returns a Service backed by vops for vOp metadata, talking to LinkDB
// through linkdb and provisioning topics through topics.
func New(vops store.VOpStore, linkdb *linkdbclient.Client, topics TopicProvisioner, opts Options) *Service {
	return &Service{
		vops:         vops,
		linkdb:       linkdb,
		topics:       topics,
		partitions:   opts.Partitions,
		replicas:     opts.ReplicationFactor,
		monitorTTLms: opts.MonitoringRetentionMs,
	}
}

// compensator is one undo step pushed as the saga advances.
type compensator func(ctx context.Context)

// ActivateRequest mirrors spec §4.2's vOp activation inputs.
type ActivateRequest struct {
	ID          string
	Tenant      string
	Description string
	Interfaces  []model.InterfaceRef
}

// Activate runs the strict-ordering activation saga (spec §4.2 steps 1-6).
// Any failure after interfaces have been reserved unwinds every completed
// step in reverse before returning.
func (s *Service) Activate(ctx context.Context, req ActivateRequest) (*model.VOp, error) {
	if !vopIDPattern.MatchString(req.ID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVOpID, req.ID)
	}

	// Step 1: not already ACTIVE.
	if existing, err := s.vops.Get(req.ID); err == nil && existing.Status == model.VOpActive {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyActive, req.ID)
	}

	var compensations []compensator
	unwind := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i](ctx)
		}
	}

	// Step 2: verify every requested interface exists, is unreserved, and
	// has a transceiver, per LinkDB's topology snapshot.
	if err := s.verifyInterfaces(ctx, req.Interfaces); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterfaceUnavailable, err)
	}

	// Step 3: reserve all listed interfaces. Collect compensations as each
	// succeeds so a later failure releases only what was actually taken.
	for _, ref := range req.Interfaces {
		if err := s.linkdb.ReserveInterface(ctx, ref.InterfaceID, req.ID); err != nil {
			unwind()
			return nil, fmt.Errorf("%w: reserve %s: %v", ErrInterfaceUnavailable, ref.InterfaceID, err)
		}
		ref := ref
		compensations = append(compensations, func(ctx context.Context) {
			_ = s.linkdb.ReleaseInterface(ctx, ref.InterfaceID, req.ID)
		})
	}

	// Step 4: ensure the vOp's Kafka topic triple exists.
	topics := model.TopicsFor(req.ID)
	specs := []kafkaio.TopicSpec{
		{Name: topics.Config, NumPartitions: s.partitions, ReplicationFac: s.replicas, CleanupPolicy: "delete", RetentionMillis: s.monitorTTLms},
		{Name: topics.Monitoring, NumPartitions: s.partitions, ReplicationFac: s.replicas, CleanupPolicy: "delete", RetentionMillis: s.monitorTTLms},
		{Name: topics.Health, NumPartitions: s.partitions, ReplicationFac: s.replicas, CleanupPolicy: "compact"},
	}
	if err := s.topics.EnsureTopics(ctx, specs); err != nil {
		unwind()
		return nil, fmt.Errorf("ensure topics for %s: %w", req.ID, err)
	}

	// Step 5: persist vOp metadata as ACTIVE.
	now := time.Now()
	vop := &model.VOp{
		ID:          req.ID,
		Tenant:      req.Tenant,
		Description: req.Description,
		Status:      model.VOpActive,
		Interfaces:  req.Interfaces,
		Topics:      topics,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var persistErr error
	if _, err := s.vops.Get(req.ID); errors.Is(err, store.ErrNotFound) {
		persistErr = s.vops.Create(vop)
	} else {
		persistErr = s.vops.Update(vop)
	}
	if persistErr != nil {
		unwind()
		return nil, fmt.Errorf("persist vop %s: %w", req.ID, persistErr)
	}

	// Step 6: controller deployment hook — external, idempotent no-op in
	// this repo (spec §4.2 names it but the controller process is launched
	// by the operator's orchestration layer, not by Slice Manager itself).

	return vop, nil
}

// verifyInterfaces checks every requested interface against LinkDB's
// topology: it must exist, be unreserved, and carry a transceiver.
func (s *Service) verifyInterfaces(ctx context.Context, refs []model.InterfaceRef) error {
	if len(refs) == 0 {
		return fmt.Errorf("at least one interface is required")
	}
	topo, err := s.linkdb.GetTopology(ctx)
	if err != nil {
		return fmt.Errorf("fetch topology: %w", err)
	}
	byID := make(map[string]model.Interface, len(topo.Interfaces))
	for _, iface := range topo.Interfaces {
		byID[iface.ID] = iface
	}
	var problems []string
	for _, ref := range refs {
		iface, ok := byID[ref.InterfaceID]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: does not exist", ref.InterfaceID))
			continue
		}
		if iface.OwnerVOp != "" {
			problems = append(problems, fmt.Sprintf("%s: already reserved by %s", ref.InterfaceID, iface.OwnerVOp))
			continue
		}
		if !iface.HasTransceiver() {
			problems = append(problems, fmt.Sprintf("%s: no transceiver present", ref.InterfaceID))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%v", problems)
	}
	return nil
}

// Deactivate reverses activation order: mark DEACTIVATING, release every
// reserved interface, then delete the vOp record. Topics are retained
// (operator policy, spec §4.2).
func (s *Service) Deactivate(ctx context.Context, id string) error {
	vop, err := s.vops.Get(id)
	if err != nil {
		return err
	}
	vop.Status = model.VOpDeactivating
	vop.UpdatedAt = time.Now()
	if err := s.vops.Update(vop); err != nil {
		return err
	}
	var releaseErrs []error
	for _, ref := range vop.Interfaces {
		if err := s.linkdb.ReleaseInterface(ctx, ref.InterfaceID, id); err != nil {
			releaseErrs = append(releaseErrs, err)
		}
	}
	if len(releaseErrs) > 0 {
		return fmt.Errorf("deactivate %s: %d interface releases failed: %v", id, len(releaseErrs), releaseErrs)
	}
	return s.vops.Delete(id)
}

func (s *Service) Get(id string) (*model.VOp, error)    { return s.vops.Get(id) }
func (s *Service) List() ([]model.VOp, error)            { return s.vops.List() }
