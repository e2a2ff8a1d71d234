package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"

	"VitalSentinel/internal/model"
)

var testEvent = model.StatusEvent{
	ID:         "0b7e4a8e-1c2d-4f5e-8a9b-0c1d2e3f4a5b",
	UserID:     "u1",
	Metric:     "blood_pressure",
	Classifier: "blood_pressure",
	Label:      "High Stage 2",
	Severity:   model.SeverityDanger,
	Value:      150,
	Secondary:  95,
	Paired:     true,
	MeasuredAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	DetectedAt: time.Date(2024, 5, 1, 8, 15, 0, 0, time.UTC),
}

func TestEncode(t *testing.T) {
	body, err := Encode(testEvent)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["severity"] != "danger" || got["value"] != 150.0 || got["secondary"] != 95.0 || got["measured_at"] != "2024-05-01T08:00:00Z" {
		t.Errorf("payload: %v", got)
	}

	nan := testEvent
	nan.Value, nan.Secondary, nan.Paired = math.NaN(), 0, false
	body, err = Encode(nan)
	if err != nil {
		t.Fatalf("NaN must not break encoding: %v", err)
	}
	got = nil
	json.Unmarshal(body, &got)
	if v, ok := got["value"]; !ok || v != nil {
		t.Errorf("NaN value should be null, got %v", got["value"])
	}
	if got["secondary"] != nil {
		t.Errorf("scalar events carry no secondary, got %v", got["secondary"])
	}

	zero := testEvent
	zero.Secondary = 0
	body, err = Encode(zero)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got = nil
	json.Unmarshal(body, &got)
	if got["secondary"] != 0.0 || got["paired"] != true {
		t.Errorf("paired zero secondary must survive, got %v", got)
	}
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                      { return true }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type fakeMQTT struct {
	mu        sync.Mutex
	topics    []string
	retained  []bool
	payloads  [][]byte
	publishEr error
}

func (f *fakeMQTT) Connect() mqtt.Token { return newFakeToken(nil) }
func (f *fakeMQTT) Disconnect(uint)     {}
func (f *fakeMQTT) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.retained = append(f.retained, retained)
	f.payloads = append(f.payloads, payload.([]byte))
	return newFakeToken(f.publishEr)
}

func TestMQTTPublisher(t *testing.T) {
	fake := &fakeMQTT{}
	p := NewMQTTPublisher(MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test", TopicPrefix: "vitals/status/"}, nil)
	p.client = fake

	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := p.Publish(context.Background(), testEvent); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.topics) != 1 || fake.topics[0] != "vitals/status/u1/blood_pressure" || !fake.retained[0] {
		t.Errorf("published to %v (retained %v)", fake.topics, fake.retained)
	}

	fake.publishEr = errors.New("not connected")
	if err := p.Publish(context.Background(), testEvent); err == nil {
		t.Error("expected publish error")
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "health.status", nil)

	if err := p.Publish(context.Background(), testEvent); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != "u1/blood_pressure" {
		t.Errorf("key: %q", m.Key)
	}
	if len(m.Headers) != 2 || string(m.Headers[0].Value) != testEvent.ID {
		t.Errorf("headers: %+v", m.Headers)
	}
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: %v, closed=%v", err, w.closed)
	}
}

func TestNewKafkaPublisher_Validates(t *testing.T) {
	if _, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil); err == nil {
		t.Error("empty topic should be rejected")
	}
	if _, err := NewKafkaPublisher(KafkaConfig{Topic: "t"}, nil); err == nil {
		t.Error("missing brokers should be rejected")
	}
}

type recordingPublisher struct {
	name  string
	err   error
	count int
}

func (r *recordingPublisher) Publish(context.Context, model.StatusEvent) error {
	r.count++
	return r.err
}
func (r *recordingPublisher) Close() error { return nil }
func (r *recordingPublisher) Name() string { return r.name }

func TestMulti(t *testing.T) {
	ok := &recordingPublisher{name: "ok"}
	bad := &recordingPublisher{name: "bad", err: errors.New("down")}
	m := Multi{bad, ok}

	err := m.Publish(context.Background(), testEvent)
	if err == nil {
		t.Error("expected joined error")
	}
	if ok.count != 1 || bad.count != 1 {
		t.Error("every sink should be attempted")
	}
	if err := (Multi{}).Publish(context.Background(), testEvent); err != nil {
		t.Errorf("empty multi: %v", err)
	}
}
