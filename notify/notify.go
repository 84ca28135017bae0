/*
Package notify publishes fire-and-forget closure events to connected
sessions and downstream consumers.

PURPOSE:
  While the system lock is held, front-desk sessions must stop taking
  mutating operations; the original implementation pushed a countdown
  "force logout" alert to every terminal. Here that side effect is a
  message on a durable queue, fully decoupled from the coordinator's
  state machine: the coordinator publishes and moves on, and a broker
  outage never blocks the seal.

EVENTS:
  audit.lock.acquired   closure started, sessions should drain
  audit.lock.released   closure finished or aborted
  audit.day.closed      a business date was sealed
  audit.day.reopened    an administrator reopened a sealed date

  Errors are logged and returned so callers can surface them as
  warnings without interrupting the main flow.
*/
package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event types.
const (
	EventLockAcquired = "audit.lock.acquired"
	EventLockReleased = "audit.lock.released"
	EventDayClosed    = "audit.day.closed"
	EventDayReopened  = "audit.day.reopened"
)

// Event is one closure notification.
type Event struct {
	Type   string    `json:"type"`
	Date   string    `json:"date,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher delivers events. Implementations must never panic; a failed
// publish is logged and returned for the caller to ignore.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// =============================================================================
// AMQP PUBLISHER
// =============================================================================

// AMQPPublisher pushes events onto a durable RabbitMQ queue. Each
// publish dials its own connection: closure events are rare (a handful
// per day) and a held connection would outlive its usefulness.
type AMQPPublisher struct {
	URL   string
	Queue string
}

// NewAMQPPublisher creates a publisher for the given broker and queue.
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = "audit.events"
	}
	return &AMQPPublisher{URL: url, Queue: queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("notify: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("notify: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts. Idempotent declare.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		log.Printf("notify: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("notify: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		log.Printf("notify: publish failed: %v", err)
		return err
	}
	return nil
}

// =============================================================================
// TEST / DEV PUBLISHERS
// =============================================================================

// Memory records events in memory. Test double.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Discard drops every event. Default when no broker is configured.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
