package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	log "github.com/sirupsen/logrus"
)

// Stream retention. Consumers are expected to keep up within a week.
const (
	streamMaxAge          = 7 * 24 * time.Hour
	streamDuplicateWindow = 2 * time.Minute
)

// NATSClient publishes domain events to a JetStream stream
type NATSClient struct {
	servers string
	nc      *nats.Conn
	js      jetstream.JetStream
}

// NewNATSClient creates a client for the comma-separated server list
func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{servers: servers}
}

// Connect dials NATS and opens a JetStream context
func (c *NATSClient) Connect(ctx context.Context) error {
	nc, err := nats.Connect(c.servers,
		nats.Name("gamerit"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc = nc
	c.js = js
	log.WithField("servers", c.servers).Info("Connected to NATS JetStream")
	return nil
}

// EnsureStream creates the stream or brings its subjects up to date
func (c *NATSClient) EnsureStream(ctx context.Context, name string, subjects []string) error {
	if c.js == nil {
		return errors.New("not connected to NATS JetStream")
	}

	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: "Gamerit domain events",
		Subjects:    subjects,
		Retention:   jetstream.LimitsPolicy,
		Storage:     jetstream.FileStorage,
		MaxAge:      streamMaxAge,
		Duplicates:  streamDuplicateWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", name, err)
	}

	log.WithFields(log.Fields{
		"stream":   name,
		"subjects": subjects,
	}).Info("JetStream stream ready")
	return nil
}

// Publish sends data to subject. msgID lets the stream drop a redelivered
// copy of the same event inside the duplicate window.
func (c *NATSClient) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	if c.js == nil {
		return errors.New("not connected to NATS JetStream")
	}

	ack, err := c.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject":   subject,
		"sequence":  ack.Sequence,
		"duplicate": ack.Duplicate,
	}).Debug("Published message to JetStream")
	return nil
}

// Close drains the connection so buffered publishes are flushed
func (c *NATSClient) Close() error {
	if c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
