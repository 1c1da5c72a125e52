package models

// Transaction is an accepted ledger record. It is never mutated after append.
//
// Absent fields are empty strings. An empty Fingerprint marks a legacy record
// written before chaining existed.
type Transaction struct {
	ID          int64  `json:"id"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount      Amount `json:"amount"`
	Timestamp   string `json:"timestamp"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

// Complete reports whether every field covered by the fingerprint is present.
func (t Transaction) Complete() bool {
	return t.Sender != "" && t.Recipient != "" && t.Timestamp != "" && !t.Amount.IsZero()
}

// Signed reports whether the record carries a signature.
func (t Transaction) Signed() bool { return t.Signature != "" }

// Involves reports whether party is the sender or the recipient.
func (t Transaction) Involves(party string) bool {
	return t.Sender == party || t.Recipient == party
}

// Draft holds the caller-supplied fields of a transaction before chaining.
type Draft struct {
	Sender    string
	Recipient string
	Amount    Amount
	Timestamp string
	Signature string
}

// TimestampLayout renders server-assigned timestamps. Six fractional digits
// and an explicit +00:00 offset keep lexicographic order chronological.
const TimestampLayout = "2006-01-02T15:04:05.000000+00:00"
