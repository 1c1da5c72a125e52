package models

// Reason explains why an audited record is invalid.
type Reason string

const (
	ReasonNoFingerprint    Reason = "no_fingerprint"
	ReasonIncomplete       Reason = "incomplete"
	ReasonChainBreak       Reason = "chain_break"
	ReasonUpstreamBreak    Reason = "upstream_break"
	ReasonSignatureInvalid Reason = "signature_invalid"
	ReasonSignerUnknown    Reason = "signer_unknown"
)

const (
	StatusIntact   = "OK"
	StatusTampered = "KO"
)

// Finding describes one invalid record.
//
// SignatureValid is nil when the record carries no signature, or when the
// record was rejected structurally before any check ran.
type Finding struct {
	ID                  int64    `json:"id"`
	Reasons             []Reason `json:"reasons"`
	HashValid           bool     `json:"hash_valid"`
	ExpectedPredecessor string   `json:"expected_predecessor,omitempty"`
	StoredFingerprint   string   `json:"stored_fingerprint,omitempty"`
	ComputedFingerprint string   `json:"computed_fingerprint,omitempty"`
	SignatureValid      *bool    `json:"signature_valid,omitempty"`
}

// Has reports whether the finding lists reason.
func (f Finding) Has(reason Reason) bool {
	for _, r := range f.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Report is the outcome of a full audit pass.
type Report struct {
	Status       string    `json:"status"`
	Intact       bool      `json:"intact"`
	Total        int       `json:"total"`
	ValidCount   int       `json:"valid_count"`
	InvalidCount int       `json:"invalid_count"`
	ValidIDs     []int64   `json:"valid_ids"`
	Invalid      []Finding `json:"invalid"`
}

// Finding returns the finding for id, if the record was invalid.
func (r Report) Finding(id int64) (Finding, bool) {
	for _, f := range r.Invalid {
		if f.ID == id {
			return f, true
		}
	}
	return Finding{}, false
}
