// mqtt.go: MQTT messenger built on the Eclipse Paho client.
package messenger

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// MQTTConfig holds the configuration for the MQTT messenger.
type MQTTConfig struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string
	Retain            bool
	ReconnectCooldown time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultMQTTConfig returns a config with reasonable default values.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    DefaultSendTimeout,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// MQTTMessenger publishes message content to a configured topic.
type MQTTMessenger struct {
	config          MQTTConfig
	internalClient  mqtt.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
}

// NewMQTT creates an MQTT messenger from settings. The connection is
// established lazily on the first send.
func NewMQTT(settings *conf.Settings) *MQTTMessenger {
	config := DefaultMQTTConfig()
	config.Broker = settings.Messaging.MQTT.Broker
	config.ClientID = settings.Main.Name
	config.Username = settings.Messaging.MQTT.Username
	config.Password = settings.Messaging.MQTT.Password
	config.Topic = settings.Messaging.MQTT.Topic
	config.Retain = settings.Messaging.MQTT.Retain
	if settings.Messaging.MQTT.Timeout > 0 {
		config.PublishTimeout = time.Duration(settings.Messaging.MQTT.Timeout) * time.Second
	}
	return &MQTTMessenger{config: config}
}

// Name identifies the transport.
func (m *MQTTMessenger) Name() string {
	return "mqtt"
}

// Connect attempts to establish a connection to the MQTT broker. It
// resolves the broker's hostname first so DNS failures surface cleanly.
func (m *MQTTMessenger) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx)
}

func (m *MQTTMessenger) connectLocked(ctx context.Context) error {
	if m.internalClient != nil && m.internalClient.IsConnected() {
		return nil
	}
	if time.Since(m.lastConnAttempt) < m.config.ReconnectCooldown {
		return errors.Newf("connection attempt too recent, last attempt was %v ago", time.Since(m.lastConnAttempt)).
			Component("messenger").
			Category(errors.CategoryMQTTConnection).
			Build()
	}
	m.lastConnAttempt = time.Now()

	u, err := url.Parse(m.config.Broker)
	if err != nil {
		return errors.Newf("invalid broker URL: %v", err).
			Component("messenger").
			Category(errors.CategoryMQTTConnection).
			Context("broker", m.config.Broker).
			Build()
	}

	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return errors.Newf("failed to resolve hostname %s: %v", host, err).
				Component("messenger").
				Category(errors.CategoryMQTTConnection).
				Build()
		}
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.config.Broker)
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)

	m.internalClient = mqtt.NewClient(opts)

	token := m.internalClient.Connect()
	if !token.WaitTimeout(m.config.ConnectTimeout) {
		return errors.Newf("connection timeout").
			Component("messenger").
			Category(errors.CategoryMQTTConnection).
			Context("broker", m.config.Broker).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(err).
			Component("messenger").
			Category(errors.CategoryMQTTConnection).
			Context("broker", m.config.Broker).
			Build()
	}

	msgLogger.Info("Connected to MQTT broker", "broker", m.config.Broker)
	return nil
}

// Send publishes the message content to the configured topic and waits
// for the publish acknowledgement up to the publish timeout.
func (m *MQTTMessenger) Send(ctx context.Context, message *outbox.Message) *outbox.Response {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.connectLocked(ctx); err != nil {
		msgLogger.Warn("MQTT connect failed", "broker", m.config.Broker, "error", err)
		return response(message, outbox.StatusFailed, fmt.Sprintf("connect: %v", err))
	}

	token := m.internalClient.Publish(m.config.Topic, 0, m.config.Retain, message.Content)
	if !token.WaitTimeout(m.config.PublishTimeout) {
		msgLogger.Warn("MQTT publish timeout", "topic", m.config.Topic, "message_id", message.ID)
		return response(message, outbox.StatusTimeout, "publish timeout")
	}
	if err := token.Error(); err != nil {
		msgLogger.Warn("MQTT publish error", "topic", m.config.Topic, "message_id", message.ID, "error", err)
		return response(message, outbox.StatusError, err.Error())
	}

	return response(message, outbox.StatusSuccess, "")
}

// Check verifies connectivity to the broker.
func (m *MQTTMessenger) Check(ctx context.Context) error {
	return m.Connect(ctx)
}

// Close disconnects from the broker.
func (m *MQTTMessenger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.internalClient != nil && m.internalClient.IsConnected() {
		m.internalClient.Disconnect(uint(m.config.DisconnectTimeout.Milliseconds()))
	}
}
