package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/platform/config"

	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrNotConfigured = errors.New("kafka not configured")

// Notifier publica eventos de reportes en un topic. Key = pet_id (orden por mascota).
type Notifier struct {
	client *kgo.Client
	topic  string
}

func NewNotifier(cfg config.KafkaConfig, opts ...kgo.Opt) (*Notifier, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, ErrNotConfigured
	}

	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(0),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Notifier{client: client, topic: cfg.Topic}, nil
}

// Ping verifica que algún broker responda.
func (n *Notifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx)
}

func (n *Notifier) Publish(ctx context.Context, e missingreports.Event) error {
	value, err := encodeEvent(e)
	if err != nil {
		return err
	}

	rec := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(e.Report.PetID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
		},
		Timestamp: e.OccurredAt,
	}
	if err := n.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce %s: %w", e.Type, err)
	}
	return nil
}

func (n *Notifier) Close() {
	n.client.Close()
}

type reportPayload struct {
	ID              string     `json:"id"`
	PetID           string     `json:"pet_id"`
	ReporterUserID  string     `json:"reporter_user_id"`
	Status          string     `json:"status"`
	MissingDate     time.Time  `json:"missing_date"`
	MissingLocation string     `json:"missing_location"`
	Description     string     `json:"description,omitempty"`
	FoundAt         *time.Time `json:"found_at,omitempty"`
}

type eventPayload struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Report     reportPayload `json:"report"`
}

// encodeEvent omite el teléfono de contacto.
func encodeEvent(e missingreports.Event) ([]byte, error) {
	r := e.Report
	return json.Marshal(eventPayload{
		Type:       e.Type,
		OccurredAt: e.OccurredAt.UTC(),
		Report: reportPayload{
			ID:              r.ID,
			PetID:           r.PetID,
			ReporterUserID:  r.ReporterUserID,
			Status:          string(r.Status),
			MissingDate:     r.MissingDate.UTC(),
			MissingLocation: r.MissingLocation,
			Description:     r.Description,
			FoundAt:         r.FoundAt,
		},
	})
}
