package models

import (
	"encoding/json"
	"strings"

	dErrors "tallyman/pkg/domain-errors"
)

// AppendTransactionRequest is the body of POST /transactions.
type AppendTransactionRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    Amount `json:"amount"`
	Timestamp string `json:"timestamp,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Validate checks required fields. Whitespace is not trimmed: the values are
// part of the signed message and must reach the ledger byte for byte.
func (r AppendTransactionRequest) Validate() error {
	var missing []string
	if r.Sender == "" {
		missing = append(missing, "sender")
	}
	if r.Recipient == "" {
		missing = append(missing, "recipient")
	}
	if r.Amount.IsZero() {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "required fields: "+strings.Join(missing, ", "))
	}
	if strings.Contains(r.Sender, "|") || strings.Contains(r.Recipient, "|") || strings.Contains(r.Timestamp, "|") {
		return dErrors.New(dErrors.CodeValidation, "fields must not contain the '|' delimiter")
	}
	return nil
}

// Draft converts the request into an unchained draft.
func (r AppendTransactionRequest) Draft() Draft {
	return Draft{
		Sender:    r.Sender,
		Recipient: r.Recipient,
		Amount:    r.Amount,
		Timestamp: r.Timestamp,
		Signature: r.Signature,
	}
}

// RegisterKeyRequest is the body of POST /keys/{party}.
type RegisterKeyRequest struct {
	PublicKey string `json:"public_key"`
}

// KeyResponse is returned by the key endpoints.
type KeyResponse struct {
	Party     string `json:"party"`
	PublicKey string `json:"public_key,omitempty"`
	Status    string `json:"status,omitempty"`
}

// BalanceResponse is returned by GET /balance/{party}.
type BalanceResponse struct {
	Party   string      `json:"party"`
	Balance json.Number `json:"balance"`
}
