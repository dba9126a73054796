// Package agent implements the SONiC Agent's command dispatcher (spec
// §4.4): schema validation, target_pop filtering, at-most-once command
// application via a bounded LRU, per-interface hardware locking, and
// periodic telemetry sessions. Grounded on the teacher's
// StartHeartbeatLoop ticker-select-done shape for the telemetry sessions
// and on original_source's sonic_agent.py command loop for the dispatch
// algorithm.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/messages"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/transceiver"
)

// commandCacheSize bounds the recently-processed command id LRU (spec
// §4.4 step 3).
const commandCacheSize = 4096

// Publisher is the narrow surface Dispatcher needs from kafkaio.Producer
// to emit acks and telemetry — narrowed the same way sliceman narrows
// TopicProvisioner, so tests can substitute a recording stub.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Options configures a Dispatcher for one agent process.
type Options struct {
	AgentID           string
	POPID             string
	RouterID          string
	Interfaces        []string // interface ids this agent owns
	TelemetryInterval time.Duration
	Capability        transceiver.Capability
	Monitoring        Publisher
	Health            Publisher // publishes on health_<vop>; heartbeat interval is TelemetryInterval*4
}

// Dispatcher is the per-agent command executor: one per SONiC switch
// process (spec §4.4).
type Dispatcher struct {
	opts  Options
	owned map[string]bool

	seen *lru.Cache // commandID -> messages.AckMessage

	ifaceLocks sync.Map // interface id -> *sync.Mutex

	sessionsMu sync.Mutex
	sessions   map[string]context.CancelFunc // keyed by connectionID+"/"+interface
}

// New returns a Dispatcher. opts.Capability and opts.Monitoring must be
// non-nil.
func New(opts Options) *Dispatcher {
	if opts.TelemetryInterval <= 0 {
		opts.TelemetryInterval = 3 * time.Second
	}
	owned := make(map[string]bool, len(opts.Interfaces))
	for _, iface := range opts.Interfaces {
		owned[iface] = true
	}
	cache, _ := lru.New(commandCacheSize)
	return &Dispatcher{
		opts:     opts,
		owned:    owned,
		seen:     cache,
		sessions: make(map[string]context.CancelFunc),
	}
}

func (d *Dispatcher) lockFor(iface string) *sync.Mutex {
	l, _ := d.ifaceLocks.LoadOrStore(iface, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// HandleCommand processes one command envelope read off config_<vop>,
// publishing exactly one ack. A command whose target_pop is neither "all"
// nor this agent's pop is ignored and gets no ack. Duplicate command ids
// re-emit the cached ack
// without re-executing (spec §8's command idempotence property).
func (d *Dispatcher) HandleCommand(ctx context.Context, env messages.CommandEnvelope) error {
	if env.TargetPOP != "all" && env.TargetPOP != d.opts.POPID {
		return nil // not addressed to this agent's pop
	}

	if cached, ok := d.seen.Get(env.CommandID); ok {
		return d.publishAck(ctx, cached.(messages.AckMessage))
	}

	ack := d.execute(ctx, env)
	d.seen.Add(env.CommandID, ack)
	return d.publishAck(ctx, ack)
}

func (d *Dispatcher) execute(ctx context.Context, env messages.CommandEnvelope) messages.AckMessage {
	switch env.Action {
	case model.ActionSetupConnection:
		return d.handleSetup(ctx, env, true)
	case model.ActionReconfigConnection:
		return d.handleSetup(ctx, env, false)
	case model.ActionTeardownConnection:
		return d.handleTeardown(ctx, env)
	case model.ActionHealthCheck:
		return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckOK, "", map[string]interface{}{
			"pop_id": d.opts.POPID, "router_id": d.opts.RouterID, "agent_id": d.opts.AgentID,
		})
	default:
		return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckError, "schema",
			map[string]interface{}{"error": fmt.Sprintf("unknown action %q", env.Action)})
	}
}

// handleSetup applies setupConnection or reconfigConnection depending on
// startTelemetry: setup starts a new telemetry session per endpoint,
// reconfigure only applies the tx-power/frequency delta.
func (d *Dispatcher) handleSetup(ctx context.Context, env messages.CommandEnvelope, startTelemetry bool) messages.AckMessage {
	params, err := env.DecodeSetup()
	if err != nil {
		return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckError, "schema",
			map[string]interface{}{"error": err.Error()})
	}

	applied := 0
	for _, ep := range params.EndpointConfig {
		if ep.POPID != d.opts.POPID || !d.owned[ep.PortID] {
			continue
		}
		lock := d.lockFor(ep.PortID)
		lock.Lock()
		cfgErr := d.opts.Capability.Configure(ctx, ep.PortID, ep.FrequencyGHz, ep.TxPowerDBm)
		lock.Unlock()
		if cfgErr != nil {
			return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckError, "hardware",
				map[string]interface{}{"interface": ep.PortID, "error": cfgErr.Error()})
		}
		applied++
		if startTelemetry {
			d.startTelemetrySession(params.ConnectionID, ep.PortID)
		}
	}

	return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckOK, "", map[string]interface{}{
		"connection_id":     params.ConnectionID,
		"endpoints_applied": applied,
	})
}

func (d *Dispatcher) handleTeardown(ctx context.Context, env messages.CommandEnvelope) messages.AckMessage {
	params, err := env.DecodeTeardown()
	if err != nil {
		return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckError, "schema",
			map[string]interface{}{"error": err.Error()})
	}

	d.stopTelemetrySessions(params.ConnectionID)

	for iface := range d.owned {
		lock := d.lockFor(iface)
		lock.Lock()
		_ = d.opts.Capability.Disable(ctx, iface)
		lock.Unlock()
	}

	return messages.NewAck(env.CommandID, d.opts.AgentID, model.AckOK, "",
		map[string]interface{}{"connection_id": params.ConnectionID})
}

func (d *Dispatcher) publishAck(ctx context.Context, ack messages.AckMessage) error {
	raw, err := json.Marshal(ack)
	if err != nil {
		return fmt.Errorf("marshal ack: %w", err)
	}
	return d.opts.Monitoring.Publish(ctx, ack.CommandID, raw)
}

// startTelemetrySession launches one goroutine sampling iface at
// TELEMETRY_INTERVAL_SEC until the session is stopped (teardown). The
// session's context derives from context.Background, not from any caller's
// context, so canceling the command context does not stop it. Restarting
// an existing session
// (reconfigure, or a duplicate setup delivery) is a no-op.
func (d *Dispatcher) startTelemetrySession(connectionID, iface string) {
	key := connectionID + "/" + iface
	d.sessionsMu.Lock()
	defer d.sessionsMu.Unlock()
	if _, exists := d.sessions[key]; exists {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.sessions[key] = cancel
	go d.runTelemetrySession(ctx, connectionID, iface)
}

func (d *Dispatcher) stopTelemetrySessions(connectionID string) {
	d.sessionsMu.Lock()
	defer d.sessionsMu.Unlock()
	prefix := connectionID + "/"
	for key, cancel := range d.sessions {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			cancel()
			delete(d.sessions, key)
		}
	}
}

func (d *Dispatcher) runTelemetrySession(ctx context.Context, connectionID, iface string) {
	ticker := time.NewTicker(d.opts.TelemetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fields, err := d.opts.Capability.ReadSample(ctx, iface)
			if err != nil {
				log.Printf("agent: telemetry sample for %s/%s: %v", connectionID, iface, err)
				continue
			}
			sample := messages.TelemetryMessage{
				Type:     "telemetry",
				AgentID:  d.opts.AgentID,
				POPID:    d.opts.POPID,
				RouterID: d.opts.RouterID,
				Data: messages.TelemetryData{
					ConnectionID: connectionID,
					Interface:    iface,
					Timestamp:    float64(time.Now().Unix()),
					Fields: messages.TelemetryFields{
						RxPowerDBm: fields.RxPowerDBm,
						TxPowerDBm: fields.TxPowerDBm,
						OSNRdB:     fields.OSNRdB,
						PreFECBER:  fields.PreFECBER,
					},
				},
			}
			raw, err := json.Marshal(sample)
			if err != nil {
				log.Printf("agent: marshal telemetry for %s/%s: %v", connectionID, iface, err)
				continue
			}
			if err := d.opts.Monitoring.Publish(ctx, connectionID, raw); err != nil {
				log.Printf("agent: publish telemetry for %s/%s: %v", connectionID, iface, err)
			}
		}
	}
}

// ActiveSessionCount reports how many telemetry sessions are currently
// running, used by health checks and tests.
func (d *Dispatcher) ActiveSessionCount() int {
	d.sessionsMu.Lock()
	defer d.sessionsMu.Unlock()
	return len(d.sessions)
}

// StartHeartbeat publishes a capability/presence advertisement on
// health_<vop> every interval, until ctx is canceled (SPEC_FULL §9).
func (d *Dispatcher) StartHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.publishHeartbeat(ctx)
		}
	}
}

func (d *Dispatcher) publishHeartbeat(ctx context.Context) {
	if d.opts.Health == nil {
		return
	}
	present := make(map[string]bool, len(d.owned))
	interfaces := make([]string, 0, len(d.owned))
	for iface := range d.owned {
		interfaces = append(interfaces, iface)
		ok, err := d.opts.Capability.GetPresence(ctx, iface)
		if err != nil {
			continue
		}
		present[iface] = ok
	}
	msg := messages.HealthMessage{
		Type:       "health",
		AgentID:    d.opts.AgentID,
		POPID:      d.opts.POPID,
		RouterID:   d.opts.RouterID,
		Interfaces: interfaces,
		Present:    present,
		Timestamp:  float64(time.Now().Unix()),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		log.Printf("agent: marshal heartbeat: %v", err)
		return
	}
	if err := d.opts.Health.Publish(ctx, d.opts.AgentID, raw); err != nil {
		log.Printf("agent: publish heartbeat: %v", err)
	}
}
