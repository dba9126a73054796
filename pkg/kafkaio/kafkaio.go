// Package kafkaio wraps github.com/segmentio/kafka-go with the tenant
// topic conventions of spec §6: one producer/consumer pair per vOp's
// config/monitoring/health topics, keyed by connection_id so commands and
// telemetry for one connection land on a single partition (spec §5's
// ordering guarantee).
package kafkaio

import (
	"context"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/retry"
)

// Producer publishes keyed messages to one topic. Same-key messages are
// sticky to one partition via kafka.Hash, so per-connection ordering holds.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns a Producer for topic on the given brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Publish writes one message keyed by key, retrying transient broker
// errors with bounded exponential backoff (spec §7).
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{Key: []byte(key), Value: value, Time: time.Now()}
	return retry.Do(ctx, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
}

// Close flushes and releases the underlying writer, draining in-flight
// writes before returning (spec §5's graceful-shutdown requirement).
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads from one topic under a consumer group. Each topic
// subscription gets its own Consumer and goroutine, per the
// one-task-per-consumer scheduling model (spec §5).
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer returns a Consumer for topic under groupID. StartOffset is
// LastOffset so a freshly (re)started consumer does not replay history —
// agents/controllers reconstruct in-flight state from LinkDB instead
// (spec §6's "persisted state" note).
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
		}),
	}
}

// ReadMessage blocks for the next message, retrying transient broker
// errors with bounded backoff. Returns ctx.Err() once ctx is canceled.
func (c *Consumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	var msg kafka.Message
	err := retry.Do(ctx, func() error {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	return msg, err
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// TopicAdmin provisions the per-vOp topic triple.
type TopicAdmin struct {
	brokers []string
}

// NewTopicAdmin returns a TopicAdmin dialing the given brokers on demand.
func NewTopicAdmin(brokers []string) *TopicAdmin {
	return &TopicAdmin{brokers: brokers}
}

// TopicSpec names one topic to ensure exists, with its retention policy.
// Slice Manager requests compact for health topics and time-based delete
// (retention.ms) for config and monitoring topics.
type TopicSpec struct {
	Name            string
	NumPartitions   int
	ReplicationFac  int
	CleanupPolicy   string // "compact" | "delete"
	RetentionMillis int64  // only meaningful for "delete"
}

// EnsureTopics creates every topic in specs that does not already exist.
// Existence is checked first via ReadPartitions so repeated activation
// attempts are idempotent, matching spec §4.2's "create missing ones".
func (a *TopicAdmin) EnsureTopics(ctx context.Context, specs []TopicSpec) error {
	if len(a.brokers) == 0 {
		return fmt.Errorf("kafkaio: no brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", a.brokers[0])
	if err != nil {
		return fmt.Errorf("kafkaio: dial %s: %w", a.brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafkaio: find controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("kafkaio: dial controller: %w", err)
	}
	defer controllerConn.Close()

	for _, spec := range specs {
		existing, err := conn.ReadPartitions(spec.Name)
		if err == nil && len(existing) > 0 {
			continue
		}
		cfg := kafka.TopicConfig{
			Topic:             spec.Name,
			NumPartitions:     orDefault(spec.NumPartitions, 3),
			ReplicationFactor: orDefault(spec.ReplicationFac, 1),
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "cleanup.policy", ConfigValue: orDefaultStr(spec.CleanupPolicy, "delete")},
			},
		}
		if spec.RetentionMillis > 0 {
			cfg.ConfigEntries = append(cfg.ConfigEntries, kafka.ConfigEntry{
				ConfigName:  "retention.ms",
				ConfigValue: fmt.Sprintf("%d", spec.RetentionMillis),
			})
		}
		if err := controllerConn.CreateTopics(cfg); err != nil {
			return fmt.Errorf("kafkaio: create topic %q: %w", spec.Name, err)
		}
	}
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
