package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/noisey/pkg/config"
	"github.com/itohio/noisey/pkg/telemetry"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt not connected")

// DialMQTT connects to the broker in cfg. The client reconnects on its own
// after a lost connection.
func DialMQTT(ctx context.Context, cfg config.MQTTConfig, clientID string, timeout time.Duration, log zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()

	select {
	case <-token.Done():
	case <-time.After(timeout):
		return nil, fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	return client, nil
}

// MQTTSender publishes telemetry messages as JSON to a topic.
type MQTTSender struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

var _ telemetry.Sender = (*MQTTSender)(nil)

// NewMQTTSender creates a sender. topic may contain one %s, replaced by the
// message id.
func NewMQTTSender(client mqtt.Client, topic string, qos byte, timeout time.Duration) *MQTTSender {
	return &MQTTSender{
		client:  client,
		topic:   topic,
		qos:     qos,
		timeout: timeout,
	}
}

// Topic returns the topic a message with the given id is published to.
func (s *MQTTSender) Topic(id string) string {
	if strings.Contains(s.topic, "%s") {
		return fmt.Sprintf(s.topic, id)
	}
	return s.topic
}

// Send publishes one message and waits for the broker acknowledgement up
// to the configured timeout.
func (s *MQTTSender) Send(ctx context.Context, msg telemetry.Message) error {
	if !s.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	token := s.client.Publish(s.Topic(msg.ID), s.qos, false, payload)
	select {
	case <-token.Done():
	case <-time.After(s.timeout):
		return fmt.Errorf("publish timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSender) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}
