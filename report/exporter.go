/*
Package report renders the closure summary document and hands it to a
dispatcher.

PURPOSE:
  After a day is sealed, management receives a one-page summary of the
  night: counts, revenue, occupancy, no-shows. Rendering produces
  opaque document bytes; dispatch pushes them with their recipient list
  onto a durable queue for the mail worker. Both are invoked at most
  once per closure and are best-effort: a failure here is a warning on
  the closure result, never a rollback of the seal.

OPEN QUESTION (resolved):
  The original treated failed dispatches as lost. This package keeps
  the at-most-once contract but dispatches through a durable queue, so
  a delivered publish survives a mail-worker outage. There is no
  in-process retry.

SEE ALSO:
  - audit/coordinator.go: the single caller
  - notify package: same queue idiom for session events
*/
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Summary is the rendered view of one sealed business date.
type Summary struct {
	Date            string
	ClosedBy        string
	ClosedAt        time.Time
	CheckIns        int
	CheckOuts       int
	OccupiedRooms   int
	TotalRooms      int
	OccupancyRate   int
	Revenue         string
	AverageRate     string
	NoShows         int
	FoliosGenerated int
}

// Exporter renders a closure summary and dispatches it.
type Exporter interface {
	Render(s Summary) ([]byte, error)
	Dispatch(ctx context.Context, doc []byte, recipients []string) error
}

// =============================================================================
// HTML EXPORTER
// =============================================================================

var summaryTmpl = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head><title>Night Audit {{.Date}}</title></head>
<body style="font-family: system-ui; max-width: 640px; margin: 40px auto;">
<h1>Night Audit &mdash; {{.Date}}</h1>
<p>Closed by {{.ClosedBy}} at {{.ClosedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><td>Check-ins</td><td>{{.CheckIns}}</td></tr>
<tr><td>Check-outs</td><td>{{.CheckOuts}}</td></tr>
<tr><td>Rooms occupied</td><td>{{.OccupiedRooms}} / {{.TotalRooms}} ({{.OccupancyRate}}%)</td></tr>
<tr><td>Revenue</td><td>{{.Revenue}}</td></tr>
<tr><td>Average rate</td><td>{{.AverageRate}}</td></tr>
<tr><td>No-shows processed</td><td>{{.NoShows}}</td></tr>
<tr><td>Folios generated</td><td>{{.FoliosGenerated}}</td></tr>
</table>
</body>
</html>
`))

// HTMLExporter renders the summary as an HTML document and dispatches
// through the configured Dispatcher.
type HTMLExporter struct {
	Dispatcher Dispatcher
}

// NewHTMLExporter wires an exporter to a dispatcher.
func NewHTMLExporter(d Dispatcher) *HTMLExporter {
	return &HTMLExporter{Dispatcher: d}
}

func (e *HTMLExporter) Render(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *HTMLExporter) Dispatch(ctx context.Context, doc []byte, recipients []string) error {
	if e.Dispatcher == nil || len(recipients) == 0 {
		return nil
	}
	return e.Dispatcher.Send(ctx, doc, recipients)
}

// =============================================================================
// DISPATCHERS
// =============================================================================

// Dispatcher hands a rendered document to its transport.
type Dispatcher interface {
	Send(ctx context.Context, doc []byte, recipients []string) error
}

// queuedDocument is the wire format pushed to the mail worker.
type queuedDocument struct {
	Recipients  []string  `json:"recipients"`
	ContentType string    `json:"content_type"`
	Document    []byte    `json:"document"` // base64 in JSON
	QueuedAt    time.Time `json:"queued_at"`
}

// QueueDispatcher publishes documents onto a durable RabbitMQ queue.
// Same dial-per-publish shape as notify: at most one dispatch per
// closure, so pooling buys nothing.
type QueueDispatcher struct {
	URL   string
	Queue string
}

func NewQueueDispatcher(url, queue string) *QueueDispatcher {
	if queue == "" {
		queue = "audit.reports"
	}
	return &QueueDispatcher{URL: url, Queue: queue}
}

func (d *QueueDispatcher) Send(ctx context.Context, doc []byte, recipients []string) error {
	conn, err := amqp.Dial(d.URL)
	if err != nil {
		log.Printf("report: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("report: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(d.Queue, true, false, false, false, nil); err != nil {
		log.Printf("report: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(queuedDocument{
		Recipients:  recipients,
		ContentType: "text/html",
		Document:    doc,
		QueuedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", d.Queue, false, false, pub); err != nil {
		log.Printf("report: publish failed: %v", err)
		return err
	}
	return nil
}

// MemoryDispatcher records dispatches in memory. Test double.
type MemoryDispatcher struct {
	mu   sync.Mutex
	sent []SentDocument
}

type SentDocument struct {
	Document   []byte
	Recipients []string
}

func NewMemoryDispatcher() *MemoryDispatcher { return &MemoryDispatcher{} }

func (d *MemoryDispatcher) Send(_ context.Context, doc []byte, recipients []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, SentDocument{Document: doc, Recipients: recipients})
	return nil
}

func (d *MemoryDispatcher) Sent() []SentDocument {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]SentDocument, len(d.sent))
	copy(out, d.sent)
	return out
}
