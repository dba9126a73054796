// Package transceiver defines the hardware capability abstraction an Agent
// drives (spec §4.4): get presence, configure frequency/tx-power, read a
// telemetry sample, disable the laser. Restored from original_source's
// cmis_driver.py, translated from direct SONiC platform/SFP register
// access into a small interface with a deterministic mock, per design note
// "hardware abstraction (source relies on runtime module discovery) ->
// explicit capability with a mock."
package transceiver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// ErrNotPresent is returned when an operation targets an interface whose
// transceiver is not plugged in.
var ErrNotPresent = errors.New("transceiver not present")

// Capability is the hardware-facing surface an Agent's dispatcher drives
// per interface. Concrete implementations own all register/platform I/O;
// everything above this interface is platform-agnostic.
type Capability interface {
	// GetPresence reports whether a module is plugged into iface.
	GetPresence(ctx context.Context, iface string) (bool, error)
	// Configure sets frequency and tx-power and enables the laser.
	Configure(ctx context.Context, iface string, frequencyMHz, txPowerDBm float64) error
	// ReadSample returns the current coherent-optics telemetry for iface.
	ReadSample(ctx context.Context, iface string) (model.QoTFields, error)
	// Disable turns the laser off and leaves the interface in a safe state.
	Disable(ctx context.Context, iface string) error
}

// portState is one interface's commanded configuration, the basis the mock
// uses to synthesize plausible telemetry.
type portState struct {
	present      bool
	enabled      bool
	frequencyMHz float64
	txPowerDBm   float64
}

// MockTransceiver implements Capability with deterministic synthetic
// readings, selected via MOCK_HARDWARE=true for development and testing.
type MockTransceiver struct {
	mu    sync.Mutex
	ports map[string]*portState
}

// NewMockTransceiver returns a MockTransceiver where every interface named
// in present starts with a module plugged in (mirrors a chassis discovery
// scan at startup).
func NewMockTransceiver(present []string) *MockTransceiver {
	m := &MockTransceiver{ports: make(map[string]*portState)}
	for _, iface := range present {
		m.ports[iface] = &portState{present: true}
	}
	return m
}

func (m *MockTransceiver) port(iface string) *portState {
	p, ok := m.ports[iface]
	if !ok {
		p = &portState{present: true}
		m.ports[iface] = p
	}
	return p
}

func (m *MockTransceiver) GetPresence(ctx context.Context, iface string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port(iface).present, nil
}

func (m *MockTransceiver) Configure(ctx context.Context, iface string, frequencyMHz, txPowerDBm float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.port(iface)
	if !p.present {
		return fmt.Errorf("configure %s: %w", iface, ErrNotPresent)
	}
	p.enabled = true
	p.frequencyMHz = frequencyMHz
	p.txPowerDBm = txPowerDBm
	return nil
}

// ReadSample synthesizes a plausible sample from the port's commanded
// state: OSNR anchored at 22dB and nudged by how close tx-power is to 0dBm
// (stronger launch power, slightly better OSNR, within a 3dB band), BER
// following the complementary curve. Deterministic so tests can assert
// exact values.
func (m *MockTransceiver) ReadSample(ctx context.Context, iface string) (model.QoTFields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.port(iface)
	if !p.present {
		return model.QoTFields{}, fmt.Errorf("read sample %s: %w", iface, ErrNotPresent)
	}
	if !p.enabled {
		return model.QoTFields{}, fmt.Errorf("read sample %s: laser not enabled", iface)
	}

	osnr := 22.0 + (p.txPowerDBm+15.0)/15.0*3.0
	ber := 1e-6
	if osnr < 18.0 {
		ber = 1e-3 * (18.0 - osnr)
	}
	return model.QoTFields{
		RxPowerDBm: p.txPowerDBm - 3.0,
		TxPowerDBm: p.txPowerDBm,
		OSNRdB:     osnr,
		PreFECBER:  ber,
	}, nil
}

func (m *MockTransceiver) Disable(ctx context.Context, iface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.port(iface)
	p.enabled = false
	return nil
}

// SonicTransceiver is the non-mock Capability for a NeoPhotonics module on
// a SONiC switch (original_source's cmis_driver.py). Concrete CMIS register
// I/O is out of scope (spec §1's "concrete transceiver hardware
// abstraction" non-goal): it performs no platform I/O, and every method
// returns an error stating that platform chassis access is not wired. It
// exists so MOCK_HARDWARE=false has an implementation to select.
type SonicTransceiver struct {
	interfaceMappings map[string]int
}

// NewSonicTransceiver returns a SonicTransceiver for the given
// interface-to-SFP-index mapping, as read from the switch's port config.
func NewSonicTransceiver(interfaceMappings map[string]int) *SonicTransceiver {
	return &SonicTransceiver{interfaceMappings: interfaceMappings}
}

func (s *SonicTransceiver) GetPresence(ctx context.Context, iface string) (bool, error) {
	return false, fmt.Errorf("sonic transceiver: %s: platform chassis access not wired in this environment", iface)
}

func (s *SonicTransceiver) Configure(ctx context.Context, iface string, frequencyMHz, txPowerDBm float64) error {
	return fmt.Errorf("sonic transceiver: %s: platform chassis access not wired in this environment", iface)
}

func (s *SonicTransceiver) ReadSample(ctx context.Context, iface string) (model.QoTFields, error) {
	return model.QoTFields{}, fmt.Errorf("sonic transceiver: %s: platform chassis access not wired in this environment", iface)
}

func (s *SonicTransceiver) Disable(ctx context.Context, iface string) error {
	return fmt.Errorf("sonic transceiver: %s: platform chassis access not wired in this environment", iface)
}
