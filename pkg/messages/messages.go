// Package messages models the Kafka wire schemas exchanged between the
// Controller and Agents (spec §6): commands keyed on an Action tag,
// telemetry samples, and acks. Every payload is parsed into a strict typed
// struct rather than passed around as map[string]interface{} beyond the
// tag dispatch itself.
package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// Endpoint mirrors one entry of a command's parameters.endpoint_config.
type Endpoint struct {
	POPID        string  `json:"pop_id"`
	NodeID       string  `json:"node_id"`
	PortID       string  `json:"port_id"`
	// FrequencyGHz carries the Controller's channel frequency as it is held
	// in model.EndpointConfig.FrequencyMHz, i.e. in MHz; the Agent passes it
	// unchanged to transceiver.Capability.Configure's frequencyMHz.
	FrequencyGHz float64 `json:"frequency"`
	TxPowerDBm   float64 `json:"tx_power_level"`
}

// SetupParameters is parameters for setupConnection and reconfigConnection.
type SetupParameters struct {
	ConnectionID   string     `json:"connection_id"`
	EndpointConfig []Endpoint `json:"endpoint_config"`
	Reason         string     `json:"reason,omitempty"`
}

// TeardownParameters is parameters for teardownConnection.
type TeardownParameters struct {
	ConnectionID string `json:"connection_id"`
}

// CommandEnvelope is the outer shape shared by every command published on
// a tenant's config topic, discriminated by Action.
type CommandEnvelope struct {
	Action     model.CommandAction `json:"action"`
	CommandID  string              `json:"command_id"`
	TargetPOP  string              `json:"target_pop"`
	Parameters json.RawMessage     `json:"parameters"`
}

// DecodeSetup parses Parameters as SetupParameters. Returns an error for
// any unknown field and for a missing connection_id or endpoint_config,
// matching design note 9's "reject unknown/missing fields at the boundary"
// rule.
func (c CommandEnvelope) DecodeSetup() (SetupParameters, error) {
	var p SetupParameters
	dec := json.NewDecoder(bytes.NewReader(c.Parameters))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return SetupParameters{}, fmt.Errorf("decode %s parameters: %w", c.Action, err)
	}
	if p.ConnectionID == "" || p.EndpointConfig == nil {
		return SetupParameters{}, fmt.Errorf("decode %s parameters: connection_id and endpoint_config are required", c.Action)
	}
	return p, nil
}

// DecodeTeardown parses Parameters as TeardownParameters, rejecting unknown
// fields and a missing connection_id.
func (c CommandEnvelope) DecodeTeardown() (TeardownParameters, error) {
	var p TeardownParameters
	dec := json.NewDecoder(bytes.NewReader(c.Parameters))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return TeardownParameters{}, fmt.Errorf("decode %s parameters: %w", c.Action, err)
	}
	if p.ConnectionID == "" {
		return TeardownParameters{}, fmt.Errorf("decode %s parameters: connection_id is required", c.Action)
	}
	return p, nil
}

// NewSetupCommand builds a setupConnection or reconfigConnection command.
func NewSetupCommand(action model.CommandAction, commandID, targetPOP string, p SetupParameters) (CommandEnvelope, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal parameters: %w", err)
	}
	return CommandEnvelope{
		Action:     action,
		CommandID:  commandID,
		TargetPOP:  targetPOP,
		Parameters: raw,
	}, nil
}

// NewTeardownCommand builds a teardownConnection command.
func NewTeardownCommand(commandID, targetPOP, connectionID string) (CommandEnvelope, error) {
	raw, err := json.Marshal(TeardownParameters{ConnectionID: connectionID})
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal parameters: %w", err)
	}
	return CommandEnvelope{
		Action:     model.ActionTeardownConnection,
		CommandID:  commandID,
		TargetPOP:  targetPOP,
		Parameters: raw,
	}, nil
}

// NewHealthCheckCommand builds a healthCheck command; parameters are empty.
func NewHealthCheckCommand(commandID, targetPOP string) CommandEnvelope {
	return CommandEnvelope{
		Action:     model.ActionHealthCheck,
		CommandID:  commandID,
		TargetPOP:  targetPOP,
		Parameters: json.RawMessage("{}"),
	}
}

// TelemetryFields are the coherent-optics readings carried on a telemetry
// sample, canonicalized on pre_fec_ber as the single bit-error-rate field
// name (the Open Questions resolution — no separate post-FEC variant).
type TelemetryFields struct {
	RxPowerDBm float64 `json:"rx_power"`
	TxPowerDBm float64 `json:"tx_power"`
	OSNRdB     float64 `json:"osnr"`
	PreFECBER  float64 `json:"pre_fec_ber"`
}

// TelemetryData is the inner "data" object of a telemetrySample message.
type TelemetryData struct {
	ConnectionID string          `json:"connection_id"`
	Interface    string          `json:"interface"`
	Timestamp    float64         `json:"timestamp"`
	Fields       TelemetryFields `json:"fields"`
}

// TelemetryMessage is the full wire shape an agent publishes on its
// monitoring topic for one sample.
type TelemetryMessage struct {
	Type     string        `json:"type"` // always "telemetry"
	AgentID  string        `json:"agent_id"`
	POPID    string        `json:"pop_id"`
	RouterID string        `json:"router_id"`
	Data     TelemetryData `json:"data"`
}

// ToSample converts the wire message into the internal model type the QoT
// monitor and sliding window operate on.
func (m TelemetryMessage) ToSample() model.TelemetrySample {
	return model.TelemetrySample{
		ConnectionID: m.Data.ConnectionID,
		AgentID:      m.AgentID,
		POPID:        m.POPID,
		RouterID:     m.RouterID,
		Interface:    m.Data.Interface,
		Timestamp:    time.Unix(int64(m.Data.Timestamp), 0).UTC(),
		Fields: model.QoTFields{
			RxPowerDBm: m.Data.Fields.RxPowerDBm,
			TxPowerDBm: m.Data.Fields.TxPowerDBm,
			OSNRdB:     m.Data.Fields.OSNRdB,
			PreFECBER:  m.Data.Fields.PreFECBER,
		},
	}
}

// HealthMessage is the periodic capability/heartbeat advertisement an agent
// publishes on health_<vop>, restored from original_source's
// agent_dispatcher.py heartbeat handling (SPEC_FULL §9) since the spec names
// the topic but only describes healthCheck request/reply.
type HealthMessage struct {
	Type       string          `json:"type"` // always "health"
	AgentID    string          `json:"agent_id"`
	POPID      string          `json:"pop_id"`
	RouterID   string          `json:"router_id"`
	Interfaces []string        `json:"interfaces"`
	Present    map[string]bool `json:"transceiver_present"`
	Timestamp  float64         `json:"timestamp"`
}

// AckMessage is the ack an agent publishes on monitoring_<vop> for a
// command it has (or refuses to have) processed.
type AckMessage struct {
	Type      string                 `json:"type"` // always "ack"
	CommandID string                 `json:"command_id"`
	AgentID   string                 `json:"agent_id"`
	Status    model.AckStatus        `json:"status"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewAck builds an ack message. Reason, if non-empty, is carried in Details
// under the "reason" key (e.g. "schema" for a malformed command).
func NewAck(commandID, agentID string, status model.AckStatus, reason string, details map[string]interface{}) AckMessage {
	if reason != "" {
		if details == nil {
			details = map[string]interface{}{}
		}
		details["reason"] = reason
	}
	return AckMessage{Type: "ack", CommandID: commandID, AgentID: agentID, Status: status, Details: details}
}
