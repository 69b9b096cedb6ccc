package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jzachmann/wifi-commissioning/pkg/rpc"
)

// MQTTConfig configures the MQTT publish sink. Trimmed from the
// teacher's pkg/transport/mqtt.Config (which also covered subscribe,
// TLS, and QOS negotiation for a bidirectional transport) down to the
// fields a single fire-and-forget publisher needs.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Topic          string
	QOS            byte
	ConnectTimeout time.Duration
}

// DefaultMQTTConfig mirrors the teacher's DefaultConfig defaults.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       fmt.Sprintf("wifi-commissioning-%d", time.Now().Unix()),
		QOS:            0,
		ConnectTimeout: 10 * time.Second,
	}
}

// MQTTSink publishes every notification, JSON-encoded, to a single
// fixed topic on an MQTT broker. Unlike the teacher's pkg/transport/mqtt
// client, it never subscribes: notifications flow one way, out of the
// device.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSink connects to cfg.Broker and returns a sink ready to publish
// to cfg.Topic.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return &MQTTSink{client: client, topic: cfg.Topic, qos: cfg.QOS}, nil
}

// Notify publishes notif as JSON to the sink's configured topic,
// implementing Sink.
func (s *MQTTSink) Notify(notif rpc.Notification) error {
	data, err := json.Marshal(notif)
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic, s.qos, false, data)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
