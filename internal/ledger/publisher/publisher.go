package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"tallyman/internal/ledger/models"
	"tallyman/pkg/platform/circuit"
	"tallyman/pkg/requestcontext"
)

// EventAppended is the type of the event emitted for each accepted transaction.
const EventAppended = "transaction.appended"

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("kafka publisher circuit open")

// Event is the JSON value of every produced record.
type Event struct {
	EventID     string             `json:"event_id"`
	Type        string             `json:"type"`
	RequestID   string             `json:"request_id,omitempty"`
	Transaction models.Transaction `json:"transaction"`
}

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher produces append events keyed by sender, so one party's
// events stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type Option func(p *KafkaPublisher)

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *KafkaPublisher) {
		p.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

func NewKafka(producer Producer, topic string, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic}
	for _, opt := range opts {
		opt(p)
	}
	if p.breaker == nil {
		p.breaker = circuit.New("kafka-publisher")
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

func (p *KafkaPublisher) PublishAppended(ctx context.Context, tx models.Transaction) error {
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	value, err := json.Marshal(Event{
		EventID:     uuid.NewString(),
		Type:        EventAppended,
		RequestID:   requestcontext.RequestID(ctx),
		Transaction: tx,
	})
	if err != nil {
		return fmt.Errorf("encode append event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(tx.Sender),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(EventAppended)},
		},
	}

	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "kafka publisher circuit opened", "topic", p.topic, "error", err)
		}
		return fmt.Errorf("produce append event: %w", err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "kafka publisher circuit closed", "topic", p.topic)
	}
	return nil
}

// Noop discards events. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishAppended(context.Context, models.Transaction) error { return nil }
