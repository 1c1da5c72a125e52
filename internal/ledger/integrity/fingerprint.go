package integrity

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenesisPredecessor is the predecessor fingerprint of the first record.
const GenesisPredecessor = "0"

// Fingerprint returns hex(sha256(canonical | predecessor)).
func Fingerprint(canonical []byte, predecessor string) string {
	h := sha256.New()
	h.Write(canonical)
	h.Write([]byte(Delimiter))
	h.Write([]byte(predecessor))
	return hex.EncodeToString(h.Sum(nil))
}
