package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/dcf77-emitter/internal/emitter"
)

// ErrNotConnected is returned when a message was buffered instead of sent.
var ErrNotConnected = errors.New("mqtt: not connected, message buffered")

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string // empty: "dcf77-emitter-" plus a random UUID
	Username string
	Password string
	Prefix   string

	// BufferSize is how many messages are kept for replay while the broker
	// is unreachable.
	BufferSize int

	Logger *zap.Logger
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topics Topics
	log    *zap.Logger

	mu   sync.Mutex
	buf  *outbox
	subs map[string]func([]byte)
}

// NewRealPublisher starts connecting to the broker and returns immediately;
// paho keeps retrying in the background.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt: broker address required")
	}
	if o.ClientID == "" {
		o.ClientID = "dcf77-emitter-" + uuid.NewString()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	p := &RealPublisher{
		topics: NewTopics(o.Prefix),
		log:    o.Logger.Named("mqtt"),
		buf:    newOutbox(o.BufferSize),
		subs:   make(map[string]func([]byte)),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetOrderMatters(false).
		SetWill(p.topics.System, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	p.log.Info("connecting", zap.String("broker", o.Broker), zap.String("client_id", o.ClientID))
	return p, nil
}

// onConnect restores subscriptions and replays buffered messages.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	subs := make(map[string]func([]byte), len(p.subs))
	for t, h := range p.subs {
		subs[t] = h
	}
	p.mu.Unlock()

	p.log.Info("connected", zap.Int("replaying", len(pending)))

	for topic, handler := range subs {
		p.subscribe(c, topic, handler)
	}
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.Warn("replay failed", zap.String("topic", m.topic), zap.Error(err))
		}
	}
}

// Publish sends an emitter event to the events topic.
func (p *RealPublisher) Publish(event emitter.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) so lifecycle messages survive a flaky link
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// PublishSyncState sends the retained sync switch position.
func (p *RealPublisher) PublishSyncState(on bool) error {
	return p.publish(bufferedMsg{topic: p.topics.SyncState, payload: FormatSyncState(on), qos: 1, retained: true})
}

// Subscribe registers handler for topic. The subscription is restored after
// every reconnect.
func (p *RealPublisher) Subscribe(topic string, handler func(payload []byte)) error {
	p.mu.Lock()
	p.subs[topic] = handler
	p.mu.Unlock()

	if p.client.IsConnectionOpen() {
		p.subscribe(p.client, topic, handler)
	}
	return nil
}

func (p *RealPublisher) subscribe(c paho.Client, topic string, handler func([]byte)) {
	token := c.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
		handler(m.Payload())
	})
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			p.log.Warn("subscribe timeout", zap.String("topic", topic))
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warn("subscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.buffer(m)
		return ErrNotConnected
	}
	if err := p.send(m); err != nil {
		p.buffer(m)
		return err
	}
	return nil
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

func (p *RealPublisher) buffer(m bufferedMsg) {
	p.mu.Lock()
	dropped := p.buf.push(m)
	n := p.buf.len()
	p.mu.Unlock()

	if dropped {
		p.log.Warn("buffer full, dropping oldest", zap.Int("capacity", n))
	}
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Topics returns the topics in use.
func (p *RealPublisher) Topics() Topics {
	return p.topics
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
