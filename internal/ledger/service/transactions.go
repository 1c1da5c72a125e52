package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tallyman/internal/ledger/integrity"
	"tallyman/internal/ledger/models"
	dErrors "tallyman/pkg/domain-errors"
	"tallyman/pkg/platform/sentinel"
	"tallyman/pkg/requestcontext"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Append validates the request, chains it onto the current ledger and stores
// it. A signed request is verified against the sender's registered key before
// anything is written. When the request has no timestamp the request time is
// used, rendered with models.TimestampLayout.
func (s *Service) Append(ctx context.Context, req models.AppendTransactionRequest) (*models.Transaction, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.Append")
	defer span.End()

	stored, err := s.append(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		s.observeAppend(start, appendResult(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("ledger.transaction_id", stored.ID),
		attribute.String("ledger.fingerprint", stored.Fingerprint),
	)
	s.observeAppend(start, resultAccepted)
	s.publish(ctx, *stored)
	return stored, nil
}

func (s *Service) append(ctx context.Context, req models.AppendTransactionRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	draft := req.Draft()
	keys, err := s.signerKeys(ctx, draft)
	if err != nil {
		return nil, err
	}

	var stored models.Transaction
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ledger, err := s.transactions.List(txCtx)
		if err != nil {
			return storeErr(err, "failed to load ledger")
		}
		// Stamped under the lock so server-assigned timestamps follow append order.
		if draft.Timestamp == "" {
			draft.Timestamp = requestcontext.Now(txCtx).UTC().Format(models.TimestampLayout)
		}
		tx, err := integrity.Build(ledger, draft, keys)
		if err != nil {
			return translateBuildErr(err)
		}
		if err := s.transactions.Append(txCtx, &tx); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store transaction")
		}
		stored = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// signerKeys loads only the sender's key. Unsigned drafts need none.
func (s *Service) signerKeys(ctx context.Context, draft models.Draft) (integrity.Keys, error) {
	keys := integrity.Keys{}
	if draft.Signature == "" {
		return keys, nil
	}
	key, err := s.keys.Find(ctx, draft.Sender)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return keys, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sender key")
	}
	keys[draft.Sender] = key
	return keys, nil
}

func translateBuildErr(err error) error {
	switch {
	case errors.Is(err, integrity.ErrUnknownSigner):
		return dErrors.New(dErrors.CodeUnknownSigner, "no public key registered for sender")
	case errors.Is(err, integrity.ErrInvalidSignature):
		return dErrors.New(dErrors.CodeInvalidSignature, "invalid signature")
	case errors.Is(err, integrity.ErrIncompleteDraft):
		return dErrors.New(dErrors.CodeValidation, "sender, recipient, amount and timestamp are required")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build transaction")
	}
}

func appendResult(err error) string {
	if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeTimeout) || dErrors.HasCode(err, dErrors.CodeUnavailable) {
		return resultFailed
	}
	return resultRejected
}

// List returns every transaction in chronological order.
func (s *Service) List(ctx context.Context) ([]models.Transaction, error) {
	ledger, err := s.transactions.List(ctx)
	if err != nil {
		return nil, storeErr(err, "failed to load ledger")
	}
	return integrity.Chronological(ledger), nil
}

// ListForParty returns the transactions party sent or received, in
// chronological order.
func (s *Service) ListForParty(ctx context.Context, party string) ([]models.Transaction, error) {
	ledger, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0)
	for _, tx := range ledger {
		if tx.Involves(party) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Balance returns incoming minus outgoing amounts for party. Every stored
// record counts, whatever its audit status.
func (s *Service) Balance(ctx context.Context, party string) (decimal.Decimal, error) {
	ledger, err := s.transactions.List(ctx)
	if err != nil {
		return decimal.Zero, storeErr(err, "failed to load ledger")
	}
	balance := decimal.Zero
	for _, tx := range ledger {
		if !tx.Involves(party) || tx.Amount.IsZero() {
			continue
		}
		amount, err := tx.Amount.Decimal()
		if err != nil {
			return decimal.Zero, dErrors.Wrap(err, dErrors.CodeInternal, "stored amount is not a number")
		}
		if tx.Recipient == party {
			balance = balance.Add(amount)
		}
		if tx.Sender == party {
			balance = balance.Sub(amount)
		}
	}
	return balance, nil
}

func (s *Service) observeAppend(start time.Time, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveAppend(start, result)
}

// publish announces an accepted transaction. The ledger is the source of
// truth, so a failed publish is logged and never undoes the append.
func (s *Service) publish(ctx context.Context, tx models.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAppended(ctx, tx); err != nil {
		s.logger.WarnContext(ctx, "failed to publish append event",
			"request_id", requestcontext.RequestID(ctx),
			"transaction_id", tx.ID,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementPublishFailures()
		}
	}
}
