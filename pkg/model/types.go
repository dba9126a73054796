// Package model defines the core data types for the IPoWDM control plane.
package model

import "time"

// SlotStatus is the occupancy state of a single frequency slot on a link.
type SlotStatus string

const (
	SlotFree     SlotStatus = "FREE"
	SlotReserved SlotStatus = "RESERVED"
	SlotActive   SlotStatus = "ACTIVE"
)

// AdminState and OperState mirror the SONiC interface admin/oper duality.
type AdminState string
type OperState string

const (
	AdminUp   AdminState = "up"
	AdminDown AdminState = "down"

	OperUp      OperState = "up"
	OperDown    OperState = "down"
	OperTesting OperState = "testing"
)

// POP is a Point of Presence: a site hosting routers.
type POP struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Routers  []string  `json:"routers,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Router is an IPoWDM router at a POP, identified by its optical interfaces.
type Router struct {
	ID         string   `json:"id"`
	POPID      string   `json:"pop_id"`
	Model      string   `json:"model,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
}

// Transceiver describes the pluggable optical module installed in an
// Interface, restored from original_source/.../schema.py so Slice Manager's
// "transceiver is present" check has real capability data to test against.
type Transceiver struct {
	Vendor         string    `json:"vendor"`
	PartNumber     string    `json:"part_number"`
	Serial         string    `json:"serial"`
	Type           string    `json:"type"` // "ZR", "ZR+"
	MaxRateGbps    int       `json:"max_rate_gbps"`
	FreqMinMHz     int       `json:"freq_min_mhz"`
	FreqMaxMHz     int       `json:"freq_max_mhz"`
	TxPowerMinDBm  float64   `json:"tx_power_min_dbm"`
	TxPowerMaxDBm  float64   `json:"tx_power_max_dbm"`
	AppCodes       []int     `json:"app_codes,omitempty"`
}

// Interface is a router optical port and its reservation/ownership state.
type Interface struct {
	ID          string       `json:"id"` // e.g. "Ethernet48"
	RouterID    string       `json:"router_id"`
	POPID       string       `json:"pop_id"`
	Port        int          `json:"port"`
	OwnerVOp    string       `json:"owner_vop,omitempty"` // empty = unreserved
	AdminState  AdminState   `json:"admin_state"`
	OperState   OperState    `json:"oper_state"`
	Transceiver *Transceiver `json:"transceiver,omitempty"`
}

// HasTransceiver reports whether a pluggable module is present.
func (i *Interface) HasTransceiver() bool { return i.Transceiver != nil }

// Link is a physical optical link between two POPs, carrying a spectrum grid.
type Link struct {
	ID         string  `json:"id"`
	POPA       string  `json:"pop_a"`
	POPB       string  `json:"pop_b"`
	DistanceKm float64 `json:"distance_km"`
	Slots      []Slot  `json:"slots"`
}

// Slot is a single fixed-width frequency bin on a Link.
type Slot struct {
	Index        int        `json:"index"`
	FrequencyMHz int        `json:"frequency_mhz"`
	Status       SlotStatus `json:"status"`
	ConnectionID string     `json:"connection_id,omitempty"`
}

// VOpStatus is the lifecycle state of a tenant slice.
type VOpStatus string

const (
	VOpRequested    VOpStatus = "REQUESTED"
	VOpActive       VOpStatus = "ACTIVE"
	VOpDeactivating VOpStatus = "DEACTIVATING"
	VOpDeleted      VOpStatus = "DELETED"
)

// TopicSet is the Kafka topic triple provisioned for a vOp.
type TopicSet struct {
	Config     string `json:"config_topic"`
	Monitoring string `json:"monitoring_topic"`
	Health     string `json:"health_topic"`
}

// TopicsFor derives the canonical topic triple for a vOp id.
func TopicsFor(vopID string) TopicSet {
	return TopicSet{
		Config:     "config_" + vopID,
		Monitoring: "monitoring_" + vopID,
		Health:     "health_" + vopID,
	}
}

// InterfaceRef selects one interface by (pop, router, interface id).
type InterfaceRef struct {
	POPID       string `json:"pop"`
	RouterID    string `json:"router"`
	InterfaceID string `json:"interface"`
}

// VOp is a tenant slice: a set of reserved interfaces plus its Kafka topics.
type VOp struct {
	ID         string         `json:"id"`
	Tenant     string         `json:"tenant"`
	Description string        `json:"description,omitempty"`
	Status     VOpStatus      `json:"status"`
	Interfaces []InterfaceRef `json:"interfaces"`
	Topics     TopicSet       `json:"topics"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ConnectionStatus is the connection lifecycle state machine's state (spec §4.3.1).
type ConnectionStatus string

const (
	ConnIdle             ConnectionStatus = "IDLE"
	ConnPlanned          ConnectionStatus = "PLANNED"
	ConnSetupPending     ConnectionStatus = "SETUP_PENDING"
	ConnActive           ConnectionStatus = "ACTIVE"
	ConnDegraded         ConnectionStatus = "DEGRADED"
	ConnReconfigPending  ConnectionStatus = "RECONFIG_PENDING"
	ConnTeardown         ConnectionStatus = "TEARDOWN"
	ConnFailed           ConnectionStatus = "FAILED"
	ConnDeleted          ConnectionStatus = "DELETED"
)

// EndpointConfig is the per-endpoint commanded configuration of a connection.
type EndpointConfig struct {
	POPID        string  `json:"pop_id"`
	NodeID       string  `json:"node_id"`
	PortID       string  `json:"port_id"`
	FrequencyMHz float64 `json:"frequency"`
	TxPowerDBm   float64 `json:"tx_power_level"`
}

// PathHop is one link traversed by a connection's computed path.
type PathHop struct {
	LinkID string `json:"link_id"`
	POPA   string `json:"pop_a"`
	POPB   string `json:"pop_b"`
}

// SlotRange is a contiguous, cross-link-identical allocated spectrum window.
type SlotRange struct {
	StartIndex int `json:"start_index"`
	Count      int `json:"count"`
}

// AckStatus is the per-agent acknowledgement outcome for a dispatched command.
type AckStatus string

const (
	AckOK    AckStatus = "ok"
	AckError AckStatus = "error"
)

// Ack is a single agent's acknowledgement of a command.
type Ack struct {
	CommandID string                 `json:"command_id"`
	AgentID   string                 `json:"agent_id"`
	Status    AckStatus              `json:"status"`
	Details   map[string]interface{} `json:"details,omitempty"`
	At        time.Time              `json:"at"`
}

// Connection is an end-to-end optical circuit owned by one vOp.
type Connection struct {
	ID             string             `json:"id"`
	VOpID          string             `json:"vop_id"`
	SourcePOP      string             `json:"source_pop"`
	DestPOP        string             `json:"dest_pop"`
	Endpoints      []EndpointConfig   `json:"endpoints"`
	BandwidthGbps  int                `json:"bandwidth_gbps"`
	Modulation     string             `json:"modulation,omitempty"`
	Path           []PathHop          `json:"path,omitempty"`
	Slots          SlotRange          `json:"slots"`
	Status         ConnectionStatus   `json:"status"`
	Acks           map[string]Ack     `json:"acks,omitempty"` // keyed by agent_id, for the in-flight command
	LastTxByEndpoint map[string]float64 `json:"last_tx_by_endpoint,omitempty"` // keyed by node_id+port_id
	PendingCommandID string           `json:"pending_command_id,omitempty"`
	FailureReason  string             `json:"failure_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// EndpointKey builds the map key used in LastTxByEndpoint for an endpoint.
func EndpointKey(ep EndpointConfig) string { return ep.NodeID + "/" + ep.PortID }

// TelemetrySample is one coherent-optics telemetry reading from an agent.
type TelemetrySample struct {
	ConnectionID string    `json:"connection_id"`
	AgentID      string    `json:"agent_id"`
	POPID        string    `json:"pop_id"`
	RouterID     string    `json:"router_id"`
	Interface    string    `json:"interface"`
	Timestamp    time.Time `json:"timestamp"`
	Fields       QoTFields `json:"fields"`
}

// QoTFields are the coherent-optics metrics used by the QoT loop.
type QoTFields struct {
	RxPowerDBm float64 `json:"rx_power"`
	TxPowerDBm float64 `json:"tx_power"`
	OSNRdB     float64 `json:"osnr"`
	PreFECBER  float64 `json:"pre_fec_ber"`
}

// CommandAction is the tag distinguishing the command variants of spec §6.
type CommandAction string

const (
	ActionSetupConnection     CommandAction = "setupConnection"
	ActionReconfigConnection  CommandAction = "reconfigConnection"
	ActionTeardownConnection  CommandAction = "teardownConnection"
	ActionHealthCheck         CommandAction = "healthCheck"
)

// Command is a controller-issued instruction addressed to one or more agents.
type Command struct {
	Action      CommandAction          `json:"action"`
	CommandID   string                 `json:"command_id"`
	TargetPOP   string                 `json:"target_pop"` // "all" | "<pop_id>"
	Parameters  map[string]interface{} `json:"parameters"`
	IssuedAt    time.Time              `json:"issued_at"`
}
