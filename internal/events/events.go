// Package events provides ports.EventPublisher implementations outside the Nakama runtime.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"scorefive/internal/logger"
	"scorefive/internal/ports"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	Kind        string          `json:"kind"`
	Recipient   string          `json:"recipient"`
	PublishedAt time.Time       `json:"publishedAt"`
	Payload     json.RawMessage `json:"payload"`
}

// NATSPublisher publishes each event on <prefix>.<kind>.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	owned  bool
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

// ConnectNATS dials url and returns a publisher that closes the connection on Close.
func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("scorefive"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("connected to NATS", "url", nc.ConnectedUrl(), "prefix", prefix)
	return &NATSPublisher{nc: nc, prefix: prefix, owned: true}, nil
}

// NewNATSPublisher publishes over an existing connection, which the caller keeps ownership of.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject kind is published on.
func (p *NATSPublisher) Subject(kind string) string {
	if p.prefix == "" {
		return kind
	}
	return p.prefix + "." + kind
}

func (p *NATSPublisher) Publish(ctx context.Context, kind, recipient string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	data, err := json.Marshal(Envelope{
		Kind:        kind,
		Recipient:   recipient,
		PublishedAt: time.Now().UTC(),
		Payload:     body,
	})
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.Subject(kind), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", kind, err)
	}
	logger.Debug("event published", "subject", p.Subject(kind), "recipient", recipient)
	return nil
}

// Close flushes pending messages and closes the connection if this publisher opened it.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Flush(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}
	if p.owned {
		p.nc.Close()
	}
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []ports.EventPublisher

func (m Multi) Publish(ctx context.Context, kind, recipient string, payload any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, kind, recipient, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
