package integrity

import (
	"errors"
	"sort"

	"tallyman/internal/ledger/models"
)

var (
	ErrIncompleteDraft  = errors.New("draft is missing sender, recipient, timestamp or amount")
	ErrUnknownSigner    = errors.New("no public key registered for sender")
	ErrInvalidSignature = errors.New("signature does not verify")
)

// Before is the chain order: timestamps compared as strings, byte by byte.
// This matches chronological order only while every timestamp shares one
// layout and offset, which the service guarantees for the timestamps it
// generates but not for caller-supplied ones.
func Before(a, b models.Transaction) bool {
	return a.Timestamp < b.Timestamp
}

// Chronological returns a copy of ledger sorted by Before. The sort is stable,
// so records with equal timestamps keep their append order.
func Chronological(ledger []models.Transaction) []models.Transaction {
	ordered := make([]models.Transaction, len(ledger))
	copy(ordered, ledger)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Before(ordered[i], ordered[j])
	})
	return ordered
}

// Predecessor returns the fingerprint a new record chains onto: that of the
// chronologically last record, or GenesisPredecessor for an empty ledger or a
// legacy tail without a fingerprint.
func Predecessor(ledger []models.Transaction) string {
	if len(ledger) == 0 {
		return GenesisPredecessor
	}
	ordered := Chronological(ledger)
	tail := ordered[len(ordered)-1]
	if tail.Fingerprint == "" {
		return GenesisPredecessor
	}
	return tail.Fingerprint
}

// Build chains draft onto the snapshot. A present signature is verified
// against the sender's key before anything is computed; on any error the
// returned transaction is the zero value. The ID is left for the store.
func Build(ledger []models.Transaction, draft models.Draft, keys KeyLookup) (models.Transaction, error) {
	if draft.Sender == "" || draft.Recipient == "" || draft.Timestamp == "" || draft.Amount.IsZero() {
		return models.Transaction{}, ErrIncompleteDraft
	}
	message := CanonicalDraft(draft)
	if draft.Signature != "" {
		key, ok := keys.PublicKey(draft.Sender)
		if !ok {
			return models.Transaction{}, ErrUnknownSigner
		}
		if !VerifySignature(key, message, draft.Signature) {
			return models.Transaction{}, ErrInvalidSignature
		}
	}
	return models.Transaction{
		Sender:      draft.Sender,
		Recipient:   draft.Recipient,
		Amount:      draft.Amount,
		Timestamp:   draft.Timestamp,
		Fingerprint: Fingerprint(message, Predecessor(ledger)),
		Signature:   draft.Signature,
	}, nil
}
