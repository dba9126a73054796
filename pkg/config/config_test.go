package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	c := Default()
	if c.KafkaBroker != "localhost:9092" {
		t.Errorf("unexpected KafkaBroker default: %s", c.KafkaBroker)
	}
	if c.OSNRThresholdDB != 18.0 {
		t.Errorf("unexpected OSNRThresholdDB default: %f", c.OSNRThresholdDB)
	}
	if c.TopicPartitions != 3 || c.TopicReplicationFac != 1 {
		t.Errorf("unexpected topic defaults: %+v", c)
	}
	if c.MonitoringRetentionMs != 6*3600*1000 {
		t.Errorf("unexpected MonitoringRetentionMs default: %d", c.MonitoringRetentionMs)
	}
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	for k, v := range map[string]string{
		"KAFKA_BROKER":             "broker.example:9092",
		"LINKDB_PORT":              "9000",
		"OSNR_THRESHOLD_DB":        "20.5",
		"ENABLE_QOT_MONITORING":    "false",
		"TOPIC_PARTITIONS":         "6",
		"TOPIC_REPLICATION_FACTOR": "2",
		"MONITORING_RETENTION_MS":  "1000",
	} {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	c := Load()
	if c.KafkaBroker != "broker.example:9092" {
		t.Errorf("expected overridden KafkaBroker, got %s", c.KafkaBroker)
	}
	if c.LinkDBPort != 9000 {
		t.Errorf("expected overridden LinkDBPort, got %d", c.LinkDBPort)
	}
	if c.OSNRThresholdDB != 20.5 {
		t.Errorf("expected overridden OSNRThresholdDB, got %f", c.OSNRThresholdDB)
	}
	if c.EnableQoTMonitoring {
		t.Error("expected EnableQoTMonitoring to be overridden to false")
	}
	if c.TopicPartitions != 6 || c.TopicReplicationFac != 2 {
		t.Errorf("expected overridden topic settings, got %+v", c)
	}
	if c.MonitoringRetentionMs != 1000 {
		t.Errorf("expected overridden MonitoringRetentionMs, got %d", c.MonitoringRetentionMs)
	}
}

func TestLoadFallsBackWhenUnset(t *testing.T) {
	os.Unsetenv("KAFKA_BROKER")
	c := Load()
	if c.KafkaBroker != "localhost:9092" {
		t.Errorf("expected default KafkaBroker, got %s", c.KafkaBroker)
	}
}

func TestDurationHelpers(t *testing.T) {
	c := Default()
	c.CommandTimeoutSec = 2.5
	c.TelemetryIntervalSec = 1.5
	c.QoTCooldownSec = 10

	if got := c.CommandTimeout(); got != 2500*time.Millisecond {
		t.Errorf("unexpected CommandTimeout: %v", got)
	}
	if got := c.TelemetryInterval(); got != 1500*time.Millisecond {
		t.Errorf("unexpected TelemetryInterval: %v", got)
	}
	if got := c.QoTCooldown(); got != 10*time.Second {
		t.Errorf("unexpected QoTCooldown: %v", got)
	}
}

func TestGetenvIntIgnoresInvalidValue(t *testing.T) {
	os.Setenv("BOGUS_INT", "not-a-number")
	defer os.Unsetenv("BOGUS_INT")
	if got := getenvInt("BOGUS_INT", 42); got != 42 {
		t.Errorf("expected fallback 42, got %d", got)
	}
}
