package workers

import (
	"chat-relay/contract"
	"chat-relay/wire"
	"context"
	"encoding/json"
	"log/slog"
)

// DeliveryWorker is the receiving half of the pub/sub bridge: it drains the
// channel fed by the broker subscription and hands each decoded event to
// the hub. Publish and delivery stay decoupled: the sender already
// returned by the time this runs, and never blocks on subscriber delivery.
//
// Order on the channel is the broker's per-subscriber order, so a single
// bridge-to-hub path preserves FIFO toward every connection.
type DeliveryWorker struct {
	log      *slog.Logger
	payloads <-chan []byte
	hub      contract.IHub
}

func NewDeliveryWorker(log *slog.Logger, payloads <-chan []byte, hub contract.IHub) *DeliveryWorker {
	return &DeliveryWorker{log: log, payloads: payloads, hub: hub}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping delivery worker")
			return nil
		case payload, ok := <-w.payloads:
			if !ok {
				return nil
			}
			var message wire.Message
			if err := json.Unmarshal(payload, &message); err != nil {
				w.log.Warn("Discarding undecodable payload", "error", err)
				continue
			}
			w.hub.Broadcast(ctx, message.ToEvent())
		}
	}
}
