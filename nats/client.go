package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	ClientID      string
}

type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger logrus.FieldLogger
}

func NewClient(cfg Config, logger logrus.FieldLogger) (*Client, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	logger.WithField("url", conn.ConnectedUrl()).Info("connected to NATS")

	return &Client{conn: conn, js: js, logger: logger}, nil
}

func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// SubscribeDurable creates a JetStream queue subscription with manual acks
// and bounded redelivery.
func (c *Client) SubscribeDurable(subject, durableName, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.js.QueueSubscribe(
		subject,
		queueGroup,
		handler,
		nats.Durable(durableName),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(3),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create durable subscription to %s: %w", subject, err)
	}

	c.logger.WithFields(logrus.Fields{
		"subject": subject,
		"durable": durableName,
		"queue":   queueGroup,
	}).Info("durable subscription created")
	return sub, nil
}

// EnsureStream creates the stream, or updates its subjects if it exists.
func (c *Client) EnsureStream(streamName string, subjects []string) error {
	cfg := &nats.StreamConfig{
		Name:      streamName,
		Subjects:  subjects,
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour * 7,
		Retention: nats.InterestPolicy,
	}

	if _, err := c.js.StreamInfo(streamName); err == nil {
		if _, err := c.js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", streamName, err)
		}
		return nil
	}

	if _, err := c.js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	c.logger.WithField("stream", streamName).Info("stream created")
	return nil
}

// Drain flushes pending publishes and closes the connection.
func (c *Client) Drain() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func DecodeEvent(msg *nats.Msg, v interface{}) error {
	return json.Unmarshal(msg.Data, v)
}
