package integrity

import (
	"tallyman/internal/ledger/models"
)

// Audit replays ledger in chain order and classifies every record.
//
// It never stops early. After each record the expected predecessor becomes
// that record's stored fingerprint, valid or not. Each link is therefore
// checked against what the ledger claims, and the first tampered record is
// the one reported with ReasonChainBreak. Every record after a break is also
// reported with hash_valid=false and ReasonUpstreamBreak, even when its own
// link is consistent: its ancestry can no longer be proven. Legacy records
// without a fingerprint carry nothing forward and leave the chain as is.
func Audit(ledger []models.Transaction, keys KeyLookup) models.Report {
	report := models.Report{
		Total:    len(ledger),
		ValidIDs: []int64{},
		Invalid:  []models.Finding{},
	}

	expected := GenesisPredecessor
	broken := false
	for _, tx := range Chronological(ledger) {
		finding, valid := inspect(tx, expected, broken, keys)
		if valid {
			report.ValidIDs = append(report.ValidIDs, tx.ID)
		} else {
			report.Invalid = append(report.Invalid, finding)
		}
		if finding.Has(models.ReasonChainBreak) {
			broken = true
		}
		if tx.Fingerprint != "" {
			expected = tx.Fingerprint
		}
	}

	report.ValidCount = len(report.ValidIDs)
	report.InvalidCount = len(report.Invalid)
	report.Intact = report.InvalidCount == 0
	report.Status = models.StatusTampered
	if report.Intact {
		report.Status = models.StatusIntact
	}
	return report
}

func inspect(tx models.Transaction, expected string, broken bool, keys KeyLookup) (models.Finding, bool) {
	finding := models.Finding{ID: tx.ID, StoredFingerprint: tx.Fingerprint}
	if tx.Fingerprint == "" {
		finding.Reasons = []models.Reason{models.ReasonNoFingerprint}
		return finding, false
	}
	if !tx.Complete() {
		finding.Reasons = []models.Reason{models.ReasonIncomplete}
		return finding, false
	}

	message := CanonicalOf(tx)
	computed := Fingerprint(message, expected)
	linked := computed == tx.Fingerprint
	finding.HashValid = linked && !broken
	switch {
	case !linked:
		finding.Reasons = append(finding.Reasons, models.ReasonChainBreak)
	case broken:
		finding.Reasons = append(finding.Reasons, models.ReasonUpstreamBreak)
	}
	if !finding.HashValid {
		finding.ExpectedPredecessor = expected
		finding.ComputedFingerprint = computed
	}

	signatureValid := true
	if tx.Signed() {
		key, ok := keys.PublicKey(tx.Sender)
		switch {
		case !ok:
			signatureValid = false
			finding.Reasons = append(finding.Reasons, models.ReasonSignerUnknown)
		case !VerifySignature(key, message, tx.Signature):
			signatureValid = false
			finding.Reasons = append(finding.Reasons, models.ReasonSignatureInvalid)
		}
		finding.SignatureValid = &signatureValid
	}

	return finding, finding.HashValid && signatureValid
}
