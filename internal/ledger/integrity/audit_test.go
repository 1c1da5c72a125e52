package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tallyman/internal/ledger/models"
)

type AuditSuite struct {
	suite.Suite
	keys   Keys
	ledger []models.Transaction
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	alice, _ := testKeys(s.T())
	s.keys = Keys{"alice": publicPEM(s.T(), alice)}

	var ledger []models.Transaction
	signed := unsigned("alice", "bob", "2025-01-01T00:00:00Z", amount(s.T(), "100"))
	sig, err := Sign(alice, CanonicalDraft(signed))
	s.Require().NoError(err)
	signed.Signature = sig
	ledger = appendTx(s.T(), ledger, signed, s.keys)
	ledger = appendTx(s.T(), ledger, unsigned("bob", "carol", "2025-01-02T00:00:00Z", amount(s.T(), "30.5")), s.keys)
	ledger = appendTx(s.T(), ledger, unsigned("carol", "dave", "2025-01-03T00:00:00Z", amount(s.T(), "7")), s.keys)
	ledger = appendTx(s.T(), ledger, unsigned("dave", "alice", "2025-01-04T00:00:00Z", amount(s.T(), "1")), s.keys)
	s.ledger = ledger
}

func (s *AuditSuite) TestIntactLedger() {
	report := Audit(s.ledger, s.keys)
	s.True(report.Intact)
	s.Equal(models.StatusIntact, report.Status)
	s.Equal(4, report.Total)
	s.Equal(4, report.ValidCount)
	s.Equal(0, report.InvalidCount)
	s.Equal([]int64{1, 2, 3, 4}, report.ValidIDs)
	s.Empty(report.Invalid)
}

func (s *AuditSuite) TestIdempotent() {
	first := Audit(s.ledger, s.keys)
	second := Audit(s.ledger, s.keys)
	s.Equal(first, second)

	s.ledger[1].Amount = amount(s.T(), "999")
	s.Equal(Audit(s.ledger, s.keys), Audit(s.ledger, s.keys))
}

func (s *AuditSuite) TestAppendOrderDoesNotMatter() {
	shuffled := []models.Transaction{s.ledger[3], s.ledger[1], s.ledger[0], s.ledger[2]}
	report := Audit(shuffled, s.keys)
	s.True(report.Intact)
	s.Equal([]int64{1, 2, 3, 4}, report.ValidIDs)
}

func (s *AuditSuite) TestFieldMutationPropagates() {
	mutations := map[string]func(tx *models.Transaction){
		"sender":    func(tx *models.Transaction) { tx.Sender = "eve" },
		"recipient": func(tx *models.Transaction) { tx.Recipient = "eve" },
		"timestamp": func(tx *models.Transaction) { tx.Timestamp = "2025-01-02T00:00:01Z" },
		"amount":    func(tx *models.Transaction) { tx.Amount = amount(s.T(), "3000") },
	}
	for field, mutate := range mutations {
		s.Run(field, func() {
			ledger := append([]models.Transaction(nil), s.ledger...)
			mutate(&ledger[1])

			report := Audit(ledger, s.keys)
			s.False(report.Intact)
			s.Equal(models.StatusTampered, report.Status)
			s.Equal([]int64{1}, report.ValidIDs)
			tampered, ok := report.Finding(2)
			s.Require().True(ok)
			s.False(tampered.HashValid)
			s.Equal([]models.Reason{models.ReasonChainBreak}, tampered.Reasons)
			for _, id := range []int64{3, 4} {
				finding, ok := report.Finding(id)
				s.Require().True(ok, "record %d should be invalid", id)
				s.False(finding.HashValid)
				s.Equal([]models.Reason{models.ReasonUpstreamBreak}, finding.Reasons)
			}
		})
	}
}

func (s *AuditSuite) TestContinuationUsesStoredFingerprint() {
	ledger := append([]models.Transaction(nil), s.ledger...)
	ledger[1].Amount = amount(s.T(), "3000")

	report := Audit(ledger, s.keys)
	second, _ := report.Finding(2)
	third, _ := report.Finding(3)
	s.Equal(ledger[0].Fingerprint, second.ExpectedPredecessor)
	s.Equal(ledger[1].Fingerprint, second.StoredFingerprint)
	s.NotEqual(second.StoredFingerprint, second.ComputedFingerprint)
	s.Equal(ledger[1].Fingerprint, third.ExpectedPredecessor, "the stored, not recomputed, fingerprint is carried")
	s.Equal(third.StoredFingerprint, third.ComputedFingerprint, "the later link itself is consistent")
	s.False(third.HashValid)
}

func (s *AuditSuite) TestDeletionBreaksNextRecord() {
	ledger := []models.Transaction{s.ledger[0], s.ledger[2], s.ledger[3]}
	report := Audit(ledger, s.keys)
	s.False(report.Intact)
	s.Equal([]int64{1}, report.ValidIDs)
	next, ok := report.Finding(3)
	s.Require().True(ok)
	s.Equal(s.ledger[0].Fingerprint, next.ExpectedPredecessor)
	s.NotEqual(next.StoredFingerprint, next.ComputedFingerprint)
	last, ok := report.Finding(4)
	s.Require().True(ok)
	s.True(last.Has(models.ReasonUpstreamBreak))
}

func (s *AuditSuite) TestInsertedRecordBreaksChain() {
	forged := models.Transaction{
		ID:        5,
		Sender:    "eve",
		Recipient: "eve",
		Amount:    amount(s.T(), "1000"),
		Timestamp: "2025-01-02T12:00:00Z",
	}
	forged.Fingerprint = Fingerprint(CanonicalOf(forged), s.ledger[1].Fingerprint)
	ledger := append(append([]models.Transaction(nil), s.ledger...), forged)

	report := Audit(ledger, s.keys)
	s.False(report.Intact)
	s.Equal([]int64{1, 2, 5}, report.ValidIDs, "a well-forged insertion only breaks its successor")
	successor, ok := report.Finding(3)
	s.Require().True(ok)
	s.True(successor.Has(models.ReasonChainBreak))
	last, ok := report.Finding(4)
	s.Require().True(ok)
	s.True(last.Has(models.ReasonUpstreamBreak))
}

func (s *AuditSuite) TestSignatureFailures() {
	s.Run("signature of another message", func() {
		ledger := append([]models.Transaction(nil), s.ledger...)
		ledger[2].Signature = ledger[0].Signature
		ledger[2].Sender = "alice"
		ledger[2].Fingerprint = Fingerprint(CanonicalOf(ledger[2]), ledger[1].Fingerprint)
		ledger[3].Fingerprint = Fingerprint(CanonicalOf(ledger[3]), ledger[2].Fingerprint)

		report := Audit(ledger, s.keys)
		finding, ok := report.Finding(3)
		s.Require().True(ok)
		s.True(finding.HashValid)
		s.Require().NotNil(finding.SignatureValid)
		s.False(*finding.SignatureValid)
		s.Equal([]models.Reason{models.ReasonSignatureInvalid}, finding.Reasons)
		s.Equal([]int64{1, 2, 4}, report.ValidIDs)
	})

	s.Run("signer key missing", func() {
		report := Audit(s.ledger, Keys{})
		finding, ok := report.Finding(1)
		s.Require().True(ok)
		s.True(finding.HashValid)
		s.Equal([]models.Reason{models.ReasonSignerUnknown}, finding.Reasons)
		s.Equal(3, report.ValidCount)
	})
}

func TestAuditSpecExample(t *testing.T) {
	t1 := models.Transaction{ID: 1, Sender: "alice", Recipient: "bob", Timestamp: "t1", Amount: amount(t, "50")}
	t1.Fingerprint = Fingerprint(CanonicalOf(t1), GenesisPredecessor)
	t2 := models.Transaction{ID: 2, Sender: "bob", Recipient: "carol", Timestamp: "t2", Amount: amount(t, "30")}
	t2.Fingerprint = Fingerprint(CanonicalOf(t2), t1.Fingerprint)

	require.Equal(t, "2f95f66f52b2e15b0c4344da246faf5200ada1bb9644a3efdce622911856113a", t1.Fingerprint)
	require.Equal(t, "0d2831efdcb715af938367ce25ce7bcbd319b890105ea42d8b6ea049742e1095", t2.Fingerprint)

	report := Audit([]models.Transaction{t1, t2}, Keys{})
	assert.True(t, report.Intact)
	assert.Equal(t, []int64{1, 2}, report.ValidIDs)

	t1.Amount = amount(t, "500")
	report = Audit([]models.Transaction{t1, t2}, Keys{})
	assert.False(t, report.Intact)
	assert.Equal(t, 2, report.InvalidCount)
	assert.Empty(t, report.ValidIDs)
	second, ok := report.Finding(2)
	require.True(t, ok)
	assert.False(t, second.HashValid)
}

func TestAuditSingleGenesis(t *testing.T) {
	tx := models.Transaction{ID: 1, Sender: "alice", Recipient: "bob", Timestamp: "2025-01-01T00:00:00Z", Amount: amount(t, "100")}
	tx.Fingerprint = Fingerprint(CanonicalOf(tx), GenesisPredecessor)

	report := Audit([]models.Transaction{tx}, Keys{})
	assert.True(t, report.Intact)

	tx.Fingerprint = Fingerprint(CanonicalOf(tx), "1")
	report = Audit([]models.Transaction{tx}, Keys{})
	finding, ok := report.Finding(1)
	require.True(t, ok)
	assert.Equal(t, GenesisPredecessor, finding.ExpectedPredecessor)
}

func TestAuditStructuralFailures(t *testing.T) {
	good := models.Transaction{ID: 2, Sender: "alice", Recipient: "bob", Timestamp: "2025-01-02T00:00:00Z", Amount: amount(t, "1")}
	good.Fingerprint = Fingerprint(CanonicalOf(good), GenesisPredecessor)

	t.Run("legacy record without fingerprint is skipped in the chain", func(t *testing.T) {
		legacy := models.Transaction{ID: 1, Sender: "alice", Recipient: "bob", Timestamp: "2025-01-01T00:00:00Z", Amount: amount(t, "1")}
		report := Audit([]models.Transaction{legacy, good}, Keys{})
		finding, ok := report.Finding(1)
		require.True(t, ok)
		assert.Equal(t, []models.Reason{models.ReasonNoFingerprint}, finding.Reasons)
		assert.Nil(t, finding.SignatureValid)
		assert.Equal(t, []int64{2}, report.ValidIDs)
	})

	t.Run("incomplete record carries its fingerprint forward", func(t *testing.T) {
		broken := models.Transaction{ID: 1, Sender: "alice", Timestamp: "2025-01-01T00:00:00Z", Fingerprint: "feed"}
		report := Audit([]models.Transaction{broken, good}, Keys{})
		finding, ok := report.Finding(1)
		require.True(t, ok)
		assert.Equal(t, []models.Reason{models.ReasonIncomplete}, finding.Reasons)
		next, ok := report.Finding(2)
		require.True(t, ok)
		assert.Equal(t, "feed", next.ExpectedPredecessor)
	})

	t.Run("empty ledger is intact", func(t *testing.T) {
		report := Audit(nil, Keys{})
		assert.True(t, report.Intact)
		assert.Zero(t, report.Total)
		assert.NotNil(t, report.ValidIDs)
		assert.NotNil(t, report.Invalid)
	})
}
