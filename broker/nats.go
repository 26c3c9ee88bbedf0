// Package broker bridges the chat core to the NATS publish/subscribe
// broker. Publishing is fire-and-forget; delivery runs on an independent
// subscription path that feeds a Go channel, so the two stages stay
// decoupled.
package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// MessageSubject carries the chat-messages topic.
const MessageSubject = "chat.messages"

type NatsBridge struct {
	nc  *nats.Conn
	log *slog.Logger
}

// Connect dials NATS with infinite reconnects; the relay outlives broker
// restarts and just loses the events published while disconnected
// (best-effort fan-out).
func Connect(url, name string, log *slog.Logger) (*NatsBridge, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to NATS", "url", nc.ConnectedUrl())
	return &NatsBridge{nc: nc, log: log}, nil
}

// Publish hands the payload to the broker and returns. No delivery promise
// is made beyond that.
func (b *NatsBridge) Publish(_ context.Context, subject string, payload []byte) error {
	return b.nc.Publish(subject, payload)
}

// feed is the channel behind a subscription. The broker callback and the
// cancel func run on different goroutines, and Unsubscribe does not wait
// for an in-flight dispatch; the mutex and closed flag keep close safe
// against a concurrent push.
type feed struct {
	mu       sync.Mutex
	closed   bool
	payloads chan []byte
}

func newFeed(buffer int) *feed {
	return &feed{payloads: make(chan []byte, buffer)}
}

// push reports whether the payload was accepted. A full buffer or a closed
// feed drops it; push never blocks and never panics.
func (f *feed) push(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	select {
	case f.payloads <- data:
		return true
	default:
		return false
	}
}

// close marks the feed closed before closing the channel, so a dispatch
// racing with shutdown is turned into a drop instead of a send on a closed
// channel. Idempotent.
func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.payloads)
}

// Subscribe feeds every payload published on the subject into a buffered
// channel. NATS delivers FIFO per subscriber, and the channel preserves
// that order toward the delivery worker. When the consumer lags behind the
// buffer, payloads are dropped rather than blocking the broker callback.
// The returned cancel unsubscribes and closes the channel.
func (b *NatsBridge) Subscribe(subject string, buffer int) (<-chan []byte, func(), error) {
	f := newFeed(buffer)
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		if !f.push(msg.Data) {
			b.log.Warn("Delivery channel unavailable, dropping payload", "subject", subject)
		}
	})
	if err != nil {
		return nil, nil, err
	}

	cancel := func() {
		_ = sub.Unsubscribe()
		f.close()
	}
	return f.payloads, cancel, nil
}

// Close drains the connection so in-flight publishes get flushed.
func (b *NatsBridge) Close() {
	if err := b.nc.Drain(); err != nil {
		b.log.Warn("NATS drain failed", "error", err)
	}
}
