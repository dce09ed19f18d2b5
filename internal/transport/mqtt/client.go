package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/thermal-monitor/internal/logger"
)

// DefaultConnectTimeout bounds the initial broker connection.
const DefaultConnectTimeout = 5 * time.Second

// disconnectQuiesce is the time in milliseconds given to in-flight work on Disconnect.
const disconnectQuiesce = 250

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt operation timed out")

// Options configures the broker connection.
type Options struct {
	// Broker is the broker URL, for example tcp://localhost:1883.
	Broker string
	// ClientID identifies the client to the broker.
	ClientID string
	// Username is optional.
	Username string
	// Password is optional.
	Password string
	// ConnectTimeout bounds Connect and every acknowledged operation.
	ConnectTimeout time.Duration
}

// MessageHandler receives subscribed messages.
type MessageHandler func(topic string, payload []byte)

// Client is a connected MQTT client.
type Client struct {
	// client is the underlying paho client.
	client paho.Client
	// timeout bounds broker acknowledgements.
	timeout time.Duration
}

// Connect opens a broker connection with automatic reconnects.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetMaxReconnectInterval(30 * time.Second)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}

	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.WarnKV(ctx, "MQTT connection lost, reconnecting", "broker", opts.Broker, "error", err)
	})

	clientOpts.SetOnConnectHandler(func(_ paho.Client) {
		logger.InfoKV(ctx, "MQTT connection established", "broker", opts.Broker, "client_id", opts.ClientID)
	})

	c := &Client{
		client:  paho.NewClient(clientOpts),
		timeout: timeout,
	}

	if err := c.wait(ctx, c.client.Connect()); err != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.Broker, err)
	}

	return c, nil
}

// Subscribe registers handler for topic.
func (c *Client) Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	if err := c.wait(ctx, token); err != nil {
		return fmt.Errorf("subscribe to topic %s: %w", topic, err)
	}

	return nil
}

// Publish sends payload to topic and waits for the broker acknowledgement.
func (c *Client) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	if err := c.wait(ctx, c.client.Publish(topic, qos, retained, payload)); err != nil {
		return fmt.Errorf("publish to topic %s: %w", topic, err)
	}

	return nil
}

// Unsubscribe removes subscriptions.
func (c *Client) Unsubscribe(ctx context.Context, topics ...string) error {
	if err := c.wait(ctx, c.client.Unsubscribe(topics...)); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}

	return nil
}

// IsConnected reports the connection state.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Disconnect closes the connection.
func (c *Client) Disconnect() {
	c.client.Disconnect(disconnectQuiesce)
}

func (c *Client) wait(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
