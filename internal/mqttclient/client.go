package mqttclient

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within the client's timeout.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

type Client struct {
	conn      mqtt.Client
	prefix    string
	timeout   time.Duration
	connected atomic.Bool
	log       zerolog.Logger
}

type Options struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
	Log         zerolog.Logger
}

func Connect(opts Options) (*Client, error) {
	c := &Client{
		prefix:  strings.Trim(opts.TopicPrefix, "/"),
		timeout: 10 * time.Second,
		log:     opts.Log.With().Str("component", "mqtt").Logger(),
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	c.conn = mqtt.NewClient(clientOpts)
	token := c.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.connected.Store(true)
	c.log.Info().Str("prefix", c.prefix).Msg("mqtt connected")
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	c.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// Publish sends payload to topic at QoS 1 and waits for the broker ack.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.conn.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(c.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// PublishRun sends a completed-run event to <prefix>/chapters.
func (c *Client) PublishRun(ev RunEvent) error {
	payload, err := ev.Marshal()
	if err != nil {
		return err
	}
	topic := Topic(c.prefix, "chapters")
	if err := c.Publish(topic, payload); err != nil {
		return err
	}
	c.log.Debug().Str("topic", topic).Str("title", ev.Title).Msg("run event published")
	return nil
}

func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Close() {
	c.log.Info().Msg("disconnecting mqtt client")
	c.conn.Disconnect(1000)
}

// Topic joins a prefix and a leaf, tolerating an empty prefix.
func Topic(prefix, leaf string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return leaf
	}
	return prefix + "/" + leaf
}
