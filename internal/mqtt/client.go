// Package mqtt connects the controller to an MQTT broker: it publishes the
// status document, feeds remote sensor readings and accepts text commands.
package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"heater_controller/internal/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout       = 10 * time.Second
	operationTimeout     = 5 * time.Second
	connectRetryInterval = 5 * time.Second
	maxReconnectInterval = time.Minute
	disconnectQuiesceMs  = 250
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt: operation timed out")

// Handler receives the topic and payload of one message.
type Handler func(topic string, payload []byte)

// Client is the subset of broker operations the controller uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, h Handler) error
	Unsubscribe(topics ...string) error
	Close()
}

// Options configures a PahoClient.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type subscription struct {
	qos     byte
	handler Handler
}

// PahoClient is a Client backed by the Eclipse Paho library. Subscriptions are
// remembered and restored after every reconnect.
type PahoClient struct {
	mu     sync.Mutex
	client paho.Client
	subs   map[string]subscription
	log    *logger.Logger
}

// Connect dials the broker. When the broker is not reachable within the
// connect timeout the client keeps retrying in the background and Connect
// returns without error.
func Connect(opts Options, log *logger.Logger) (*PahoClient, error) {
	c := &PahoClient{subs: map[string]subscription{}, log: log}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetMaxReconnectInterval(maxReconnectInterval).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second)
	po.SetOnConnectHandler(c.onConnect)
	po.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warnw("mqtt_connection_lost", "error", err)
	})

	c.client = paho.NewClient(po)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warnw("mqtt_connect_pending", "broker", opts.Broker, "timeout", connectTimeout)
		return c, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", opts.Broker, err)
	}
	return c, nil
}

func (c *PahoClient) onConnect(client paho.Client) {
	or := client.OptionsReader()
	c.log.Infow("mqtt_connected", "servers", or.Servers(), "client_id", or.ClientID())

	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for topic, s := range c.subs {
		subs[topic] = s
	}
	c.mu.Unlock()

	for topic, s := range subs {
		// Blocking on a token inside the connect handler deadlocks paho.
		client.Subscribe(topic, s.qos, wrap(s.handler))
	}
}

func wrap(h Handler) paho.MessageHandler {
	return func(_ paho.Client, m paho.Message) {
		h(m.Topic(), m.Payload())
	}
}

func wait(t paho.Token) error {
	if !t.WaitTimeout(operationTimeout) {
		return ErrTimeout
	}
	return t.Error()
}

func (c *PahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if err := wait(c.client.Publish(topic, qos, retained, payload)); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (c *PahoClient) Subscribe(topic string, qos byte, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: h}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		// onConnect subscribes once the link is up.
		return nil
	}
	if err := wait(c.client.Subscribe(topic, qos, wrap(h))); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (c *PahoClient) Unsubscribe(topics ...string) error {
	c.mu.Lock()
	for _, t := range topics {
		delete(c.subs, t)
	}
	c.mu.Unlock()

	if err := wait(c.client.Unsubscribe(topics...)); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func (c *PahoClient) Close() {
	c.client.Disconnect(disconnectQuiesceMs)
	c.log.Infow("mqtt_disconnected")
}
