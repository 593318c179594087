package messenger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

func TestNewMQTTFromSettings(t *testing.T) {
	settings := &conf.Settings{}
	settings.Main.Name = "node-1"
	settings.Messaging.MQTT.Broker = "tcp://broker.example.com:1883"
	settings.Messaging.MQTT.Topic = "fieldrec/detections"
	settings.Messaging.MQTT.Retain = true
	settings.Messaging.MQTT.Timeout = 10

	m := NewMQTT(settings)
	assert.Equal(t, "mqtt", m.Name())
	assert.Equal(t, "tcp://broker.example.com:1883", m.config.Broker)
	assert.Equal(t, "node-1", m.config.ClientID)
	assert.Equal(t, "fieldrec/detections", m.config.Topic)
	assert.True(t, m.config.Retain)
	assert.Equal(t, 10*time.Second, m.config.PublishTimeout)
}

func TestMQTTDefaultPublishTimeout(t *testing.T) {
	settings := &conf.Settings{}
	settings.Messaging.MQTT.Broker = "tcp://broker.example.com:1883"

	m := NewMQTT(settings)
	assert.Equal(t, DefaultSendTimeout, m.config.PublishTimeout)
}

func TestMQTTConnectInvalidBroker(t *testing.T) {
	m := &MQTTMessenger{config: DefaultMQTTConfig()}
	m.config.Broker = "://bad"

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}

func TestMQTTSendFailsClosedWithoutBroker(t *testing.T) {
	m := &MQTTMessenger{config: DefaultMQTTConfig()}
	m.config.Broker = "tcp://host.invalid:1883"
	m.config.ConnectTimeout = time.Second

	message := outbox.NewMessage(`{"type":"detection"}`)
	resp := m.Send(context.Background(), &message)

	require.NotNil(t, resp)
	assert.Equal(t, outbox.StatusFailed, resp.Status)
	assert.Equal(t, message.ID, resp.MessageID)
}

func TestMQTTConnectCooldown(t *testing.T) {
	m := &MQTTMessenger{config: DefaultMQTTConfig()}
	m.config.Broker = "tcp://host.invalid:1883"
	m.config.ConnectTimeout = time.Second

	_ = m.Connect(context.Background())

	// A second attempt inside the cooldown window is refused outright.
	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}
