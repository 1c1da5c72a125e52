package integrity

import (
	"strings"

	"tallyman/internal/ledger/models"
)

// Delimiter separates fields in the canonical message and fingerprint input.
const Delimiter = "|"

// Canonical renders the signable message sender|recipient|timestamp|amount.
// The fingerprint is never part of it: a signature must verify before the
// record has a chain position.
func Canonical(sender, recipient, timestamp string, amount models.Amount) []byte {
	return []byte(strings.Join([]string{sender, recipient, timestamp, amount.String()}, Delimiter))
}

// CanonicalOf renders the signable message of a stored transaction.
func CanonicalOf(tx models.Transaction) []byte {
	return Canonical(tx.Sender, tx.Recipient, tx.Timestamp, tx.Amount)
}

// CanonicalDraft renders the signable message of an unchained draft.
func CanonicalDraft(d models.Draft) []byte {
	return Canonical(d.Sender, d.Recipient, d.Timestamp, d.Amount)
}
