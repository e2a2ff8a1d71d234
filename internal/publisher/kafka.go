package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"VitalSentinel/internal/model"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes status events to a topic, keyed by user and metric
// so the events of one metric stay ordered within a partition.
type KafkaPublisher struct {
	writer kafkaWriter
	topic  string
	log    *slog.Logger
}

// NewKafkaPublisher creates a synchronous writer for cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig, log *slog.Logger) (*KafkaPublisher, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, cfg.Topic, log), nil
}

func newKafkaPublisher(w kafkaWriter, topic string, log *slog.Logger) *KafkaPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &KafkaPublisher{writer: w, topic: topic, log: log.With("component", "kafka_publisher")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt model.StatusEvent) error {
	body, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.UserID + "/" + evt.Metric),
		Value: body,
		Time:  evt.DetectedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.ID)},
			{Key: "severity", Value: []byte(evt.Severity.String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", p.topic, err)
	}
	p.log.Debug("status published", "topic", p.topic, "event", evt.ID)
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

func (p *KafkaPublisher) Name() string { return "kafka" }
