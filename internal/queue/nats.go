package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect opens a NATS connection that keeps reconnecting until the process
// exits.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return conn, nil
}

// Publisher sends JSON encoded payloads to a fixed subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewPublisher(conn *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With("component", "publisher", "subject", subject),
	}
}

// Publish encodes v as JSON and sends it. Delivery is fire and forget; the
// send only buffers into the connection.
func (p *Publisher) Publish(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	p.logger.Debug("published payload", "bytes", len(data))
	return nil
}

// Close flushes buffered messages and drops the connection.
func (p *Publisher) Close() {
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("flush before close", "error", err)
	}
	p.conn.Close()
}

// Subscribe delivers JSON decoded messages from subject to handler. A
// non-empty group makes the subscription queue-balanced across instances.
// Messages that fail to decode are logged and dropped.
func Subscribe[T any](conn *nats.Conn, subject, group string, logger *slog.Logger, handler func(T)) (*nats.Subscription, error) {
	cb := func(msg *nats.Msg) {
		var payload T
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Error("dropping undecodable message",
				"subject", msg.Subject, "bytes", len(msg.Data), "error", err)
			return
		}
		handler(payload)
	}
	if group != "" {
		return conn.QueueSubscribe(subject, group, cb)
	}
	return conn.Subscribe(subject, cb)
}
