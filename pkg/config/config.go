// Package config centralizes environment-derived configuration for every
// IPoWDM service binary. A single Config value is built once in main and
// passed into each component's constructor — no component reads the
// environment itself.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable named in spec §6's configuration table.
type Config struct {
	KafkaBroker      string
	VirtualOperator  string
	ConfigTopic      string
	MonitoringTopic  string
	HealthTopic      string

	LinkDBHost string
	LinkDBPort int

	TelemetryIntervalSec float64
	CommandTimeoutSec    float64

	EnableQoTMonitoring bool
	QoTSamples          int
	QoTCooldownSec      float64
	OSNRThresholdDB     float64
	BERThreshold        float64
	TxStepDB            float64
	TxMinDBm            float64
	TxMaxDBm            float64
	AdjustMode          string // "both" | "one"

	MockHardware bool
	LogLevel     string

	TopicPartitions       int
	TopicReplicationFac   int
	MonitoringRetentionMs int64
}

// Default returns the spec §4.3.2 default thresholds with everything else
// at a development-friendly default; Load overlays environment overrides.
func Default() Config {
	return Config{
		KafkaBroker:          "localhost:9092",
		LinkDBHost:           "localhost",
		LinkDBPort:           8000,
		TelemetryIntervalSec: 3.0,
		CommandTimeoutSec:    30.0,
		EnableQoTMonitoring:  true,
		QoTSamples:           3,
		QoTCooldownSec:       20.0,
		OSNRThresholdDB:      18.0,
		BERThreshold:         1e-3,
		TxStepDB:             1.0,
		TxMinDBm:             -15.0,
		TxMaxDBm:             0.0,
		AdjustMode:           "both",
		MockHardware:         true,
		LogLevel:             "INFO",

		TopicPartitions:       3,
		TopicReplicationFac:   1,
		MonitoringRetentionMs: 6 * 3600 * 1000, // 6h, per spec §9's retention recommendation
	}
}

// Load builds a Config from the environment, starting from Default.
func Load() Config {
	c := Default()
	c.KafkaBroker = getenv("KAFKA_BROKER", c.KafkaBroker)
	c.VirtualOperator = getenv("VIRTUAL_OPERATOR", c.VirtualOperator)
	c.ConfigTopic = getenv("CONFIG_TOPIC", c.ConfigTopic)
	c.MonitoringTopic = getenv("MONITORING_TOPIC", c.MonitoringTopic)
	c.HealthTopic = getenv("HEALTH_TOPIC", c.HealthTopic)
	c.LinkDBHost = getenv("LINKDB_HOST", c.LinkDBHost)
	c.LinkDBPort = getenvInt("LINKDB_PORT", c.LinkDBPort)
	c.TelemetryIntervalSec = getenvFloat("TELEMETRY_INTERVAL_SEC", c.TelemetryIntervalSec)
	c.CommandTimeoutSec = getenvFloat("COMMAND_TIMEOUT_SEC", c.CommandTimeoutSec)
	c.EnableQoTMonitoring = getenvBool("ENABLE_QOT_MONITORING", c.EnableQoTMonitoring)
	c.QoTSamples = getenvInt("QOT_SAMPLES", c.QoTSamples)
	c.QoTCooldownSec = getenvFloat("QOT_COOLDOWN_SEC", c.QoTCooldownSec)
	c.OSNRThresholdDB = getenvFloat("OSNR_THRESHOLD_DB", c.OSNRThresholdDB)
	c.BERThreshold = getenvFloat("BER_THRESHOLD", c.BERThreshold)
	c.TxStepDB = getenvFloat("TX_STEP_DB", c.TxStepDB)
	c.TxMinDBm = getenvFloat("TX_MIN_DBM", c.TxMinDBm)
	c.TxMaxDBm = getenvFloat("TX_MAX_DBM", c.TxMaxDBm)
	c.AdjustMode = getenv("ADJUST_MODE", c.AdjustMode)
	c.MockHardware = getenvBool("MOCK_HARDWARE", c.MockHardware)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.TopicPartitions = getenvInt("TOPIC_PARTITIONS", c.TopicPartitions)
	c.TopicReplicationFac = getenvInt("TOPIC_REPLICATION_FACTOR", c.TopicReplicationFac)
	c.MonitoringRetentionMs = int64(getenvInt("MONITORING_RETENTION_MS", int(c.MonitoringRetentionMs)))
	return c
}

// CommandTimeout returns CommandTimeoutSec as a time.Duration.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSec * float64(time.Second))
}

// TelemetryInterval returns TelemetryIntervalSec as a time.Duration.
func (c Config) TelemetryInterval() time.Duration {
	return time.Duration(c.TelemetryIntervalSec * float64(time.Second))
}

// QoTCooldown returns QoTCooldownSec as a time.Duration.
func (c Config) QoTCooldown() time.Duration {
	return time.Duration(c.QoTCooldownSec * float64(time.Second))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
