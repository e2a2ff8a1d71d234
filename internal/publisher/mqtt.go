package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"VitalSentinel/internal/model"
)

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	Broker      string // e.g. tcp://localhost:1883
	ClientID    string
	TopicPrefix string
}

// MQTTPublisher publishes the latest status per user and metric as a
// retained message on {prefix}/{user}/{metric}.
type MQTTPublisher struct {
	client mqttClient
	cfg    MQTTConfig
	log    *slog.Logger

	mu        sync.RWMutex
	connected bool
}

// NewMQTTPublisher builds a client with auto reconnect. Call Connect before publishing.
func NewMQTTPublisher(cfg MQTTConfig, log *slog.Logger) *MQTTPublisher {
	if log == nil {
		log = slog.Default()
	}
	p := &MQTTPublisher{cfg: cfg, log: log.With("component", "mqtt_publisher")}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.log.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.log.Warn("mqtt connection lost", "err", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// IsConnected reports the last known connection state.
func (p *MQTTPublisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Connect waits for the broker connection or ctx, whichever comes first.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	if p.IsConnected() {
		return nil
	}
	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			p.client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Topic returns the topic a user's metric status is published on.
func (p *MQTTPublisher) Topic(userID, metric string) string {
	return strings.TrimRight(p.cfg.TopicPrefix, "/") + "/" + userID + "/" + metric
}

func (p *MQTTPublisher) Publish(ctx context.Context, evt model.StatusEvent) error {
	body, err := Encode(evt)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	topic := p.Topic(evt.UserID, evt.Metric)
	token := p.client.Publish(topic, 1, true, body)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	p.log.Debug("status published", "topic", topic, "event", evt.ID)
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	p.setConnected(false)
	return nil
}

func (p *MQTTPublisher) Name() string { return "mqtt" }
