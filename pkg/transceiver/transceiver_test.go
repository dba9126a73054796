package transceiver

import (
	"context"
	"errors"
	"testing"
)

func TestGetPresence(t *testing.T) {
	m := NewMockTransceiver([]string{"Ethernet1"})
	present, err := m.GetPresence(context.Background(), "Ethernet1")
	if err != nil || !present {
		t.Fatalf("expected present, got %v err %v", present, err)
	}

	present, err = m.GetPresence(context.Background(), "Ethernet2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !present {
		t.Fatal("expected the mock to lazily create a present port")
	}
}

func TestConfigureThenReadSample(t *testing.T) {
	m := NewMockTransceiver([]string{"Ethernet1"})
	ctx := context.Background()
	if err := m.Configure(ctx, "Ethernet1", 193100.0, -2.0); err != nil {
		t.Fatalf("configure: %v", err)
	}

	sample, err := m.ReadSample(ctx, "Ethernet1")
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if sample.TxPowerDBm != -2.0 {
		t.Fatalf("expected tx power -2.0, got %f", sample.TxPowerDBm)
	}
	if sample.OSNRdB <= 0 {
		t.Fatalf("expected a positive osnr, got %f", sample.OSNRdB)
	}
}

func TestReadSampleFailsWithoutConfigure(t *testing.T) {
	m := NewMockTransceiver([]string{"Ethernet1"})
	if _, err := m.ReadSample(context.Background(), "Ethernet1"); err == nil {
		t.Fatal("expected an error reading a sample before the laser is enabled")
	}
}

func TestDisableStopsSampling(t *testing.T) {
	m := NewMockTransceiver([]string{"Ethernet1"})
	ctx := context.Background()
	m.Configure(ctx, "Ethernet1", 193100.0, -2.0)
	if err := m.Disable(ctx, "Ethernet1"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := m.ReadSample(ctx, "Ethernet1"); err == nil {
		t.Fatal("expected read to fail after disable")
	}
}

func TestConfigureRejectsAbsentModule(t *testing.T) {
	m := &MockTransceiver{ports: map[string]*portState{"Ethernet1": {present: false}}}
	err := m.Configure(context.Background(), "Ethernet1", 193100.0, -2.0)
	if !errors.Is(err, ErrNotPresent) {
		t.Fatalf("expected ErrNotPresent, got %v", err)
	}
}

func TestSonicTransceiverDocumentsUnwiredPlatform(t *testing.T) {
	s := NewSonicTransceiver(map[string]int{"Ethernet1": 1})
	if _, err := s.GetPresence(context.Background(), "Ethernet1"); err == nil {
		t.Fatal("expected an error, the sonic platform path is intentionally unwired")
	}
}
