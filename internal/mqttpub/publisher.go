// Package mqttpub publishes decoded fixes to an MQTT broker as JSON.
package mqttpub

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"nmeafix/internal/fix"
)

type Config struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Retain   bool
	// Timeout bounds Connect and each Publish. Default 2s.
	Timeout time.Duration
}

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	c       client
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
}

// ClientID returns base with a random suffix so two instances never
// kick each other off the broker.
func ClientID(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "nmeafix"
	}
	return base + "-" + uuid.NewString()[:8]
}

func New(cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	id := ClientID(cfg.ClientID)
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	p := newPublisher(mqtt.NewClient(opts), cfg)
	if err := p.connect(); err != nil {
		return nil, err
	}
	log.Printf("mqtt connected broker=%s client_id=%s topic=%s", cfg.Broker, id, p.topic)
	return p, nil
}

func newPublisher(c client, cfg Config) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "nmeafix/fix"
	}
	return &Publisher{c: c, topic: topic, qos: cfg.QoS, retain: cfg.Retain, timeout: timeout}
}

func (p *Publisher) connect() error {
	return p.wait(p.c.Connect(), "connect")
}

func (p *Publisher) wait(tok mqtt.Token, op string) error {
	if !tok.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt %s timed out after %s", op, p.timeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt %s: %w", op, err)
	}
	return nil
}

// PublishFix sends f's JSON report to the configured topic.
func (p *Publisher) PublishFix(f fix.Fix) error {
	payload, err := json.Marshal(f.Report())
	if err != nil {
		return err
	}
	return p.wait(p.c.Publish(p.topic, p.qos, p.retain, payload), "publish")
}

func (p *Publisher) Close() {
	p.c.Disconnect(250)
}
