package missingreports

import (
	"context"
	"time"
)

const (
	EventReportFiled    = "report.filed"
	EventReportResolved = "report.resolved"
	EventReportArchived = "report.archived"
)

// Event se publica después del commit.
type Event struct {
	Type       string
	Report     MissingReport
	OccurredAt time.Time
}

// Notifier publica eventos de reportes (p.ej. a Kafka para alertas de vecinos).
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, Event) error { return nil }

// NopNotifier descarta los eventos.
func NopNotifier() Notifier { return nopNotifier{} }
