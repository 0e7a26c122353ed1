package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// defaultFlushTimeout bounds the wait for the server to acknowledge a published chunk
const defaultFlushTimeout = 5 * time.Second

// ConnectNATS dials a NATS server with logging handlers attached
func ConnectNATS(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	base := []nats.Option{
		nats.Name(name),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("nats error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNATSConnect, err)
	}

	return nc, nil
}

// NATS mirrors records onto a subject, one message per record. Each message
// carries a unique Nats-Msg-Id so JetStream consumers can deduplicate.
type NATS[T any] struct {
	nc           *nats.Conn
	subject      string
	flushTimeout time.Duration
}

// NewNATS returns a sink publishing to subject over nc; nc stays owned by the caller
func NewNATS[T any](nc *nats.Conn, subject string) *NATS[T] {
	return &NATS[T]{
		nc:           nc,
		subject:      subject,
		flushTimeout: defaultFlushTimeout,
	}
}

// Write publishes each record and waits for the server to process the chunk
func (n *NATS[T]) Write(ctx context.Context, records []T) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrPublish, err)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPublish, err)
		}

		msg := nats.NewMsg(n.subject)
		msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
		msg.Data = data

		if err := n.nc.PublishMsg(msg); err != nil {
			return fmt.Errorf("%w: %w", ErrPublish, err)
		}
	}

	if err := n.nc.FlushTimeout(n.flushTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	return nil
}

// Close flushes pending messages; the connection is left open
func (n *NATS[T]) Close() error {
	if n.nc.IsClosed() {
		return nil
	}

	return n.nc.FlushTimeout(n.flushTimeout)
}
