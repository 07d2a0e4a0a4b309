// Package messaging wraps NATS JetStream for signal publication and the
// outcome feed.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"aviatorpro/internal/config"
)

// ErrMalformed marks a message that will never succeed. Such messages are
// terminated instead of redelivered.
var ErrMalformed = errors.New("malformed message")

// MessageHandler processes one delivery. A nil error acks the message.
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// Publisher is the publishing half of Client.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	cfg    config.NATSConfig
	logger *zap.Logger

	mu     sync.Mutex
	iters  []jetstream.MessagesContext
	closed atomic.Bool
}

// Connect dials NATS with unlimited reconnects and opens JetStream.
func Connect(cfg config.NATSConfig, name string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open jetstream: %w", err)
	}
	return &Client{conn: nc, js: js, cfg: cfg, logger: logger}, nil
}

// StreamConfigs returns the streams the service owns.
func StreamConfigs(cfg config.NATSConfig) []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:        cfg.SignalStream,
			Subjects:    []string{cfg.SignalSubjectPrefix + ".>"},
			Description: "stored signals by platform",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     50000,
			MaxAge:      7 * 24 * time.Hour,
		},
		{
			Name:        cfg.OutcomeStream,
			Subjects:    []string{cfg.OutcomeSubject},
			Description: "round outcomes from the platform feed",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     500000,
			MaxBytes:    256 * 1024 * 1024,
			MaxAge:      3 * 24 * time.Hour,
		},
	}
}

// EnsureStreams creates or updates every stream the service uses.
func (c *Client) EnsureStreams(ctx context.Context) error {
	for _, sc := range StreamConfigs(c.cfg) {
		if _, err := c.js.CreateOrUpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("ensure stream %s: %w", sc.Name, err)
		}
		c.logger.Info("nats stream ready", zap.String("stream", sc.Name), zap.Strings("subjects", sc.Subjects))
	}
	return nil
}

// Publish JSON-encodes v unless it is already bytes.
func (c *Client) Publish(ctx context.Context, subject string, v any) error {
	payload, err := encode(v)
	if err != nil {
		return err
	}
	if _, err := c.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	switch p := v.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		return b, nil
	}
}

// Consume attaches a durable pull consumer and processes messages until ctx
// is done or Close is called.
func (c *Client) Consume(ctx context.Context, stream, durable, filter string, handler MessageHandler) error {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		Durable:       durable,
		Description:   "outcome ingestion",
		FilterSubject: filter,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", durable, err)
	}
	iter, err := consumer.Messages(jetstream.PullMaxMessages(10))
	if err != nil {
		return fmt.Errorf("open message iterator %s: %w", durable, err)
	}
	c.mu.Lock()
	c.iters = append(c.iters, iter)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()
	go c.loop(ctx, iter, durable, handler)
	c.logger.Info("nats consumer started",
		zap.String("stream", stream),
		zap.String("consumer", durable),
		zap.String("filter", filter),
	)
	return nil
}

func (c *Client) loop(ctx context.Context, iter jetstream.MessagesContext, durable string, handler MessageHandler) {
	log := c.logger.With(zap.String("consumer", durable))
	defer func() {
		if r := recover(); r != nil {
			log.Error("nats consumer panicked", zap.Any("panic", r))
		}
	}()
	for {
		msg, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() || errors.Is(err, nats.ErrConnectionClosed) {
				return
			}
			if errors.Is(err, jetstream.ErrNoMessages) {
				continue
			}
			log.Warn("nats next failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		Dispatch(ctx, msg, handler, log)
	}
}

// Delivery is the part of jetstream.Msg that Dispatch touches.
type Delivery interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Dispatch runs handler and settles the message: ack on success, term on
// ErrMalformed, nak otherwise.
func Dispatch(ctx context.Context, msg Delivery, handler MessageHandler, log *zap.Logger) {
	err := handler(ctx, msg.Subject(), msg.Data())
	switch {
	case err == nil:
		err = msg.Ack()
	case errors.Is(err, ErrMalformed):
		log.Warn("dropping malformed message", zap.String("subject", msg.Subject()), zap.Error(err))
		err = msg.Term()
	default:
		log.Warn("message handling failed, will redeliver", zap.String("subject", msg.Subject()), zap.Error(err))
		err = msg.Nak()
	}
	if err != nil {
		log.Warn("settle message failed", zap.String("subject", msg.Subject()), zap.Error(err))
	}
}

func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Close stops consumers and drains the connection.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closed.Store(true)
	c.mu.Lock()
	for _, it := range c.iters {
		it.Stop()
	}
	c.iters = nil
	c.mu.Unlock()
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
}
