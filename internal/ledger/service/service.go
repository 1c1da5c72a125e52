package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tallyman/internal/ledger/metrics"
	"tallyman/internal/ledger/models"
	dErrors "tallyman/pkg/domain-errors"
	"tallyman/pkg/platform/sentinel"
)

// TransactionStore persists accepted transactions. Implementations are pure
// I/O: ordering and chaining are decided by the integrity engine.
type TransactionStore interface {
	// List returns every stored transaction in append order.
	List(ctx context.Context) ([]models.Transaction, error)
	// Append stores tx and assigns its ID.
	Append(ctx context.Context, tx *models.Transaction) error
}

// KeyStore holds the party to public key registry. Last write wins.
type KeyStore interface {
	Save(ctx context.Context, party, publicKey string) error
	// Find returns sentinel.ErrNotFound when party has no key.
	Find(ctx context.Context, party string) (string, error)
	All(ctx context.Context) (map[string]string, error)
}

// Publisher announces accepted transactions to downstream consumers.
type Publisher interface {
	PublishAppended(ctx context.Context, tx models.Transaction) error
}

// Service orchestrates appends, listings, balances, key registration and
// integrity audits over the configured stores.
type Service struct {
	transactions TransactionStore
	keys         KeyStore
	tx           StoreTx
	publisher    Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithTx replaces the default in-process append lock.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(transactions TransactionStore, keys KeyStore, opts ...Option) *Service {
	s := &Service{transactions: transactions, keys: keys}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = newInMemoryStoreTx()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("tallyman/internal/ledger/service")
	}
	return s
}


// storeErr wraps a failed store read. Corrupt storage is called out because
// retrying will not help.
func storeErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrCorrupt) {
		return dErrors.Wrap(err, dErrors.CodeInternal, msg+": storage is corrupt")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
