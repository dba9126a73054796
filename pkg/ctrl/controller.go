// Package ctrl implements the per-vOp Controller: path computation over
// LinkDB's topology, the connection lifecycle state machine, Kafka command
// dispatch, and the QoT closed loop (spec §4.3). It wires pkg/linkdbclient,
// pkg/kafkaio, pkg/pathcompute, pkg/connection, and pkg/qot into one
// orchestrator, the shape original_source's ip-sdn-controller/app.py wires
// by hand in a single process.
package ctrl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/connection"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdbclient"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/messages"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/pathcompute"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/qot"
)

// baseChannelFrequencyMHz anchors the assigned channel frequency for a
// connection's allocated spectrum window, in pkg/pathcompute's slot-width
// units (spec's literal wire example "frequency":193.1 scaled into this
// package's MHz convention).
const baseChannelFrequencyMHz = 193100000.0

// defaultTxPowerDBm is the initial commanded tx-power for a newly set up
// connection; the QoT loop steps it from here within its clamp range.
const defaultTxPowerDBm = -2.0

var (
	ErrPathInfeasible    = errors.New("no feasible path with available spectrum")
	ErrNotPlanned        = errors.New("connection is not in PLANNED state")
	ErrNotFound          = connection.ErrNotFound
	ErrSetupInProgress   = errors.New("a setup or reconfigure is already in flight for this connection")
)

// CommandPublisher is the narrow surface Controller needs to emit commands
// on config_<vop>.
type CommandPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Consumer is the narrow surface Controller needs to read monitoring_<vop>
// or health_<vop>, matching pkg/kafkaio.Consumer's signature so tests can
// substitute a fake without dialing a broker.
type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Options configures a Controller.
type Options struct {
	VOpID          string
	CommandTimeout time.Duration
	QoT            qot.Options
}

// pendingCommand tracks one outstanding setup/reconfigure awaiting
// acks from every agent that owns an endpoint on the connection.
type pendingCommand struct {
	commandID string
	expected  map[string]bool // NodeID (router/agent) set
	acked     map[string]bool
	onFail    func()
	onTimeout func()
	onDone    func()
	timer     *time.Timer
}

// Controller is the per-vOp orchestrator: one instance per active vOp
// process (spec §4.3).
type Controller struct {
	vopID          string
	commandTimeout time.Duration

	linkdb   *linkdbclient.Client
	producer CommandPublisher
	conns    *connection.Manager
	qotMon   *qot.Monitor

	pendingMu sync.Mutex
	pending   map[string]*pendingCommand

	agentsMu sync.Mutex
	agents   map[string]AgentHealth
}

// AgentHealth is the last-known liveness snapshot for one agent, populated
// from health_<vop> heartbeats (SPEC_FULL §9).
type AgentHealth struct {
	AgentID    string          `json:"agent_id"`
	POPID      string          `json:"pop_id"`
	RouterID   string          `json:"router_id"`
	Interfaces []string        `json:"interfaces"`
	Present    map[string]bool `json:"transceiver_present"`
	LastSeen   time.Time       `json:"last_seen"`
}

// New returns a Controller for one vOp, talking to LinkDB through linkdb and
// publishing commands through producer.
func New(linkdb *linkdbclient.Client, producer CommandPublisher, opts Options) *Controller {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 30 * time.Second
	}
	c := &Controller{
		vopID:          opts.VOpID,
		commandTimeout: opts.CommandTimeout,
		linkdb:         linkdb,
		producer:       producer,
		conns:          connection.NewManager(),
		pending:        make(map[string]*pendingCommand),
		agents:         make(map[string]AgentHealth),
	}
	c.qotMon = qot.New(opts.QoT, c.conns, c)
	return c
}

// Run starts the QoT monitor and the monitoring/health consumer loops,
// blocking until ctx is canceled.
func (c *Controller) Run(ctx context.Context, monitoring, health Consumer) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.qotMon.Run(ctx) }()
	go func() { defer wg.Done(); c.consumeMonitoring(ctx, monitoring) }()
	if health != nil {
		go func() { defer wg.Done(); c.consumeHealth(ctx, health) }()
	} else {
		wg.Done()
	}
	wg.Wait()
}

func (c *Controller) consumeMonitoring(ctx context.Context, consumer Consumer) {
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("ctrl: read monitoring: %v", err)
			continue
		}
		c.handleMonitoringMessage(msg.Value)
	}
}

func (c *Controller) handleMonitoringMessage(raw []byte) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		log.Printf("ctrl: malformed monitoring message: %v", err)
		return
	}
	switch probe.Type {
	case "telemetry":
		var tm messages.TelemetryMessage
		if err := json.Unmarshal(raw, &tm); err != nil {
			log.Printf("ctrl: decode telemetry: %v", err)
			return
		}
		c.qotMon.Feed(tm.ToSample())
	case "ack":
		var ack messages.AckMessage
		if err := json.Unmarshal(raw, &ack); err != nil {
			log.Printf("ctrl: decode ack: %v", err)
			return
		}
		c.handleAck(ack)
	default:
		log.Printf("ctrl: unknown monitoring message type %q", probe.Type)
	}
}

func (c *Controller) consumeHealth(ctx context.Context, consumer Consumer) {
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("ctrl: read health: %v", err)
			continue
		}
		var hm messages.HealthMessage
		if err := json.Unmarshal(msg.Value, &hm); err != nil {
			log.Printf("ctrl: decode health message: %v", err)
			continue
		}
		c.agentsMu.Lock()
		c.agents[hm.AgentID] = AgentHealth{
			AgentID: hm.AgentID, POPID: hm.POPID, RouterID: hm.RouterID,
			Interfaces: hm.Interfaces, Present: hm.Present, LastSeen: time.Now().UTC(),
		}
		c.agentsMu.Unlock()
	}
}

// Agents returns a snapshot of every agent seen via a health heartbeat.
func (c *Controller) Agents() []AgentHealth {
	c.agentsMu.Lock()
	defer c.agentsMu.Unlock()
	out := make([]AgentHealth, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, a)
	}
	return out
}

// CreateConnectionRequest is the input to CreateConnection.
type CreateConnectionRequest struct {
	ID            string
	SourcePOP     string
	DestPOP       string
	BandwidthGbps int
	Modulation    string
	Endpoints     []model.EndpointConfig // pop/node/port per circuit end; frequency/tx-power are assigned here
}

// CreateConnection computes a path and allocates spectrum on it, bringing
// the connection to PLANNED (spec §4.3.1's "create -> PLANNED after path +
// slots computed").
func (c *Controller) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*model.Connection, error) {
	slotsRequired := pathcompute.RequiredSlots(req.BandwidthGbps, req.Modulation)

	paths, err := c.linkdb.Path(ctx, req.SourcePOP, req.DestPOP, 3)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathInfeasible, err)
	}

	var window model.SlotRange
	var chosen []model.PathHop
	var allocErr error
	for _, p := range paths {
		window, allocErr = c.linkdb.Allocate(ctx, req.ID, p, slotsRequired)
		if allocErr == nil {
			chosen = p
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %v", ErrPathInfeasible, allocErr)
	}

	endpoints := make([]model.EndpointConfig, len(req.Endpoints))
	for i, ep := range req.Endpoints {
		endpoints[i] = model.EndpointConfig{
			POPID: ep.POPID, NodeID: ep.NodeID, PortID: ep.PortID,
			FrequencyMHz: baseChannelFrequencyMHz + float64(window.StartIndex*pathcompute.SlotWidthMHz),
			TxPowerDBm:   defaultTxPowerDBm,
		}
	}

	now := time.Now().UTC()
	conn := &model.Connection{
		ID: req.ID, VOpID: c.vopID, SourcePOP: req.SourcePOP, DestPOP: req.DestPOP,
		Endpoints: endpoints, BandwidthGbps: req.BandwidthGbps, Modulation: req.Modulation,
		Path: chosen, Slots: window, CreatedAt: now, UpdatedAt: now,
	}
	c.conns.Create(conn)
	if _, err := c.conns.Apply(conn.ID, connection.EventPlanned); err != nil {
		return nil, fmt.Errorf("plan connection %s: %w", conn.ID, err)
	}
	out, _ := c.conns.Get(conn.ID)
	return &out, nil
}

// Setup publishes setupConnection for a PLANNED connection and moves it to
// SETUP_PENDING, arming a command_timeout timer per spec §5.
func (c *Controller) Setup(ctx context.Context, connectionID string) error {
	conn, err := c.conns.Get(connectionID)
	if err != nil {
		return err
	}
	if conn.Status != model.ConnPlanned {
		return fmt.Errorf("%w: connection %s is %s", ErrNotPlanned, connectionID, conn.Status)
	}
	return c.dispatchAndAwait(ctx, &conn, model.ActionSetupConnection, connection.EventSetupRequested,
		connection.EventSetupCompleted, connection.EventSetupFailed, conn.Endpoints, "")
}

// Reconfigure implements qot.Reconfigurer: it publishes reconfigConnection
// with the endpoints the QoT loop has already tx-power-stepped.
func (c *Controller) Reconfigure(ctx context.Context, connectionID string, endpoints []model.EndpointConfig, reason qot.ReconfigReason) error {
	conn, err := c.conns.Get(connectionID)
	if err != nil {
		return err
	}
	reasonJSON, _ := json.Marshal(reason)
	return c.dispatchAndAwait(ctx, &conn, model.ActionReconfigConnection, connection.EventReconfigRequested,
		connection.EventReconfigCompleted, connection.EventReconfigFailed, endpoints, string(reasonJSON))
}

// dispatchAndAwait is the shared setup/reconfigure path: transition into
// the pending state, publish the command, and arm a timeout that fires the
// failure transition if acks from every endpoint's agent do not arrive in
// time.
func (c *Controller) dispatchAndAwait(ctx context.Context, conn *model.Connection, action model.CommandAction,
	startEvent, successEvent, failEvent connection.Event, endpoints []model.EndpointConfig, reason string) error {

	c.pendingMu.Lock()
	if _, inFlight := c.pending[conn.ID]; inFlight {
		c.pendingMu.Unlock()
		return ErrSetupInProgress
	}
	c.pendingMu.Unlock()

	if _, err := c.conns.Apply(conn.ID, startEvent); err != nil {
		return err
	}

	commandID := newCommandID()
	wireEndpoints := make([]messages.Endpoint, len(endpoints))
	for i, ep := range endpoints {
		wireEndpoints[i] = messages.Endpoint{POPID: ep.POPID, NodeID: ep.NodeID, PortID: ep.PortID, FrequencyGHz: ep.FrequencyMHz, TxPowerDBm: ep.TxPowerDBm}
	}
	env, err := messages.NewSetupCommand(action, commandID, "all", messages.SetupParameters{
		ConnectionID: conn.ID, EndpointConfig: wireEndpoints, Reason: reason,
	})
	if err != nil {
		c.failAndRelease(conn.ID, failEvent)
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		c.failAndRelease(conn.ID, failEvent)
		return err
	}

	expected := make(map[string]bool)
	for _, ep := range endpoints {
		expected[ep.NodeID] = true
	}

	pc := &pendingCommand{commandID: commandID, expected: expected, acked: make(map[string]bool)}
	// onFail is shared by the timeout path and handleAck's nack path: both
	// apply the same failure event and, when that event fails a setup
	// (rather than degrading an already-active connection on a reconfigure
	// nack), release the spectrum the connection never got to use.
	pc.onFail = func() {
		c.failAndRelease(conn.ID, failEvent)
		c.clearPending(conn.ID)
	}
	pc.onTimeout = func() {
		log.Printf("ctrl: connection %s timed out waiting for acks on command %s", conn.ID, commandID)
		pc.onFail()
	}
	pc.onDone = func() {
		c.conns.Apply(conn.ID, successEvent)
		if successEvent == connection.EventSetupCompleted {
			c.activateSpectrum(conn.ID)
		}
		c.clearPending(conn.ID)
	}
	pc.timer = time.AfterFunc(c.commandTimeout, pc.onTimeout)

	c.pendingMu.Lock()
	c.pending[conn.ID] = pc
	c.pendingMu.Unlock()

	if err := c.producer.Publish(ctx, conn.ID, raw); err != nil {
		pc.timer.Stop()
		c.clearPending(conn.ID)
		c.failAndRelease(conn.ID, failEvent)
		return fmt.Errorf("publish %s for %s: %w", action, conn.ID, err)
	}
	return nil
}

// failAndRelease applies a fail event and, when it fails a setup outright
// rather than degrading an active connection, releases the spectrum that
// setup never got to use.
func (c *Controller) failAndRelease(connectionID string, failEvent connection.Event) {
	c.conns.Apply(connectionID, failEvent)
	if failEvent == connection.EventSetupFailed {
		c.releaseSpectrum(connectionID)
	}
}

func (c *Controller) clearPending(connectionID string) {
	c.pendingMu.Lock()
	delete(c.pending, connectionID)
	c.pendingMu.Unlock()
}

func linkIDsOf(conn model.Connection) []string {
	linkIDs := make([]string, len(conn.Path))
	for i, hop := range conn.Path {
		linkIDs[i] = hop.LinkID
	}
	return linkIDs
}

// releaseSpectrum returns a connection's slot window to FREE, used when
// setup nacks or times out and when a connection is torn down.
func (c *Controller) releaseSpectrum(connectionID string) {
	conn, err := c.conns.Get(connectionID)
	if err != nil {
		return
	}
	if err := c.linkdb.Release(context.Background(), connectionID, linkIDsOf(conn), conn.Slots); err != nil {
		log.Printf("ctrl: release spectrum for %s: %v", connectionID, err)
	}
}

// activateSpectrum promotes a connection's RESERVED slot window to ACTIVE,
// once every agent has acked setup.
func (c *Controller) activateSpectrum(connectionID string) {
	conn, err := c.conns.Get(connectionID)
	if err != nil {
		return
	}
	if err := c.linkdb.Activate(context.Background(), connectionID, linkIDsOf(conn), conn.Slots); err != nil {
		log.Printf("ctrl: activate spectrum for %s: %v", connectionID, err)
	}
}

// handleAck records one agent's ack against the in-flight command for its
// connection, completing the transition once every expected agent has ok'd.
func (c *Controller) handleAck(ack messages.AckMessage) {
	c.pendingMu.Lock()
	var match *pendingCommand
	var connID string
	for id, pc := range c.pending {
		if pc.commandID == ack.CommandID {
			match = pc
			connID = id
			break
		}
	}
	if match == nil {
		c.pendingMu.Unlock()
		return
	}
	if ack.Status != model.AckOK {
		c.pendingMu.Unlock()
		match.timer.Stop()
		log.Printf("ctrl: connection %s: agent %s nacked command %s: %v", connID, ack.AgentID, ack.CommandID, ack.Details)
		c.conns.Mutate(connID, func(conn *model.Connection) { conn.FailureReason = fmt.Sprintf("%v", ack.Details) })
		match.onFail()
		return
	}
	match.acked[ack.AgentID] = true
	done := len(match.acked) >= len(match.expected)
	for agent := range match.expected {
		if !match.acked[agent] {
			done = false
		}
	}
	c.pendingMu.Unlock()

	if done {
		match.timer.Stop()
		match.onDone()
	}
}

// Teardown publishes teardownConnection, then releases the connection's
// spectrum in LinkDB and deletes the connection from this Controller's
// connection manager. It does not wait for agent acks before releasing.
func (c *Controller) Teardown(ctx context.Context, connectionID string) error {
	conn, err := c.conns.Get(connectionID)
	if err != nil {
		return err
	}
	if _, err := c.conns.Apply(connectionID, connection.EventTeardownRequested); err != nil {
		return err
	}

	commandID := newCommandID()
	env, err := messages.NewTeardownCommand(commandID, "all", connectionID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := c.producer.Publish(ctx, connectionID, raw); err != nil {
		return fmt.Errorf("publish teardown for %s: %w", connectionID, err)
	}

	if err := c.linkdb.Release(ctx, connectionID, linkIDsOf(conn), conn.Slots); err != nil {
		log.Printf("ctrl: release spectrum for %s: %v", connectionID, err)
	}
	if _, err := c.conns.Apply(connectionID, connection.EventTeardownCompleted); err != nil {
		return err
	}
	c.conns.Delete(connectionID)
	return nil
}

// Get returns one connection's current state.
func (c *Controller) Get(connectionID string) (model.Connection, error) { return c.conns.Get(connectionID) }

// List returns every connection this Controller is tracking.
func (c *Controller) List() []model.Connection { return c.conns.List() }

// Path proxies to LinkDB's k-shortest-paths computation for the status
// surface (GET /api/v1/topology/path/{src}/{dst}).
func (c *Controller) Path(ctx context.Context, src, dst string, k int) ([][]model.PathHop, error) {
	return c.linkdb.Path(ctx, src, dst, k)
}

// QoTStatus returns the QoT snapshot for every monitored connection.
func (c *Controller) QoTStatus() []qot.Status { return c.qotMon.AllStatus() }

func newCommandID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
