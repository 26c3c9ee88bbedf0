//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes events delivered by the hub. Implementations must not
// block longer than the context allows; a slow sink only loses its own
// events.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// StateStore is the abstract key-value collaborator. Get reports absence
// through its bool, never through an error: an expired entry and a missing
// one are the same thing at this boundary. A zero ttl means the entry never
// expires.
type StateStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Publisher is the fire-and-forget half of the pub/sub bridge. Delivery to
// subscribers happens on an independent path; a successful publish promises
// nothing beyond handing the payload to the broker.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// IHub maintains the live connections of the single chat room.
type IHub interface {
	OnConnect(sink EventSink) domain.ConnectionID
	OnJoinRoom(id domain.ConnectionID) error
	OnDisconnect(id domain.ConnectionID)
	Broadcast(ctx context.Context, e event.DomainEvent)
}
