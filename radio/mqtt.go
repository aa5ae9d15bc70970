package radio

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gr-butler/fullstation/health"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

// MQTTConfig describes the broker of the LoRaWAN network bridge.
type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	// Uplinks are published to Topic/<port>, acks arrive on Topic/ack
	Topic string
}

// Client is the part of the paho client the radio uses.
type Client interface {
	IsConnectionOpen() bool
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func NewMQTTClient(cfg MQTTConfig) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	ackTopic := cfg.Topic + "/ack"
	opts.OnConnect = func(c mqtt.Client) {
		logger.Infof("LW:Connected [%v]", cfg.BrokerURL)
		if token := c.Subscribe(ackTopic, 0, logAck); token.Wait() && token.Error() != nil {
			logger.Errorf("LW:Subscribe ack failed [%v]", token.Error())
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		logger.Warnf("LW:Connection lost [%v]", err)
	}
	return mqtt.NewClient(opts)
}

// Acks are informational only.
func logAck(_ mqtt.Client, msg mqtt.Message) {
	logger.Infof("LW:Ack [%v] [%s]", msg.Topic(), msg.Payload())
}

// MQTTRadio sends uplinks to a LoRaWAN bridge over MQTT. The publish token of
// the last uplink is the outstanding transmission.
type MQTTRadio struct {
	lock    sync.Mutex
	client  Client
	topic   string
	clock   clockwork.Clock
	status  *health.Status
	pending mqtt.Token
}

func NewMQTTRadio(client Client, topic string, clock clockwork.Clock, status *health.Status) *MQTTRadio {
	return &MQTTRadio{
		client: client,
		topic:  topic,
		clock:  clock,
		status: status,
	}
}

// Join connects to the broker, backing off from start up to max between
// attempts. The LoRa health bit is set while not joined.
func (m *MQTTRadio) Join(ctx context.Context, start, max time.Duration) error {
	backoff := start
	for {
		token := m.client.Connect()
		if token.Wait() && token.Error() == nil {
			logger.Info("LW:Joined")
			m.status.Clear(health.LoRa)
			return nil
		}
		m.status.Set(health.LoRa)
		logger.Warnf("LW:Join failed [%v] retry in [%v]", token.Error(), backoff)
		select {
		case <-m.clock.After(backoff):
			if backoff < max {
				backoff *= 2
				if backoff > max {
					backoff = max
				}
			}
		case <-ctx.Done():
			logger.Warn("LW:Join cancelled")
			return ctx.Err()
		}
	}
}

func (m *MQTTRadio) Joined() bool {
	return m.client.IsConnectionOpen()
}

func (m *MQTTRadio) Busy() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.reap()
	return m.pending != nil
}

func (m *MQTTRadio) Service() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.reap()
}

// reap clears the pending token once the broker has answered. Caller holds
// the lock.
func (m *MQTTRadio) reap() {
	if m.pending == nil {
		return
	}
	select {
	case <-m.pending.Done():
		if err := m.pending.Error(); err != nil {
			logger.Errorf("LW:TX failed [%v]", err)
		} else {
			logger.Debug("LW:TX complete")
		}
		m.pending = nil
	default:
	}
}

func (m *MQTTRadio) Queue(port uint8, payload []byte, confirmed bool) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.pending != nil {
		return fmt.Errorf("transmission outstanding")
	}
	var qos byte
	if confirmed {
		qos = 1
	}
	m.pending = m.client.Publish(fmt.Sprintf("%s/%d", m.topic, port), qos, false, payload)
	return nil
}
