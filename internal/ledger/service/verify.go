package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tallyman/internal/ledger/integrity"
	"tallyman/internal/ledger/models"
)

// Verify audits the whole ledger against the current key registry. Tampering
// is reported in the returned report; the error is reserved for store failures.
func (s *Service) Verify(ctx context.Context) (models.Report, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.Verify")
	defer span.End()

	ledger, err := s.transactions.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load ledger")
		return models.Report{}, storeErr(err, "failed to load ledger")
	}
	keys, err := s.keys.All(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load keys")
		return models.Report{}, storeErr(err, "failed to load key registry")
	}

	report := integrity.Audit(ledger, integrity.Keys(keys))
	span.SetAttributes(
		attribute.String("ledger.audit_status", report.Status),
		attribute.Int("ledger.audit_total", report.Total),
		attribute.Int("ledger.audit_invalid", report.InvalidCount),
	)
	if s.metrics != nil {
		s.metrics.ObserveAudit(start, report)
	}
	if !report.Intact {
		s.logger.WarnContext(ctx, "ledger audit found invalid records",
			"invalid_count", report.InvalidCount,
			"total", report.Total,
		)
	}
	return report, nil
}
