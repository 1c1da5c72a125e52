package integrity

import (
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tallyman/internal/ledger/models"
)

var (
	keysOnce   sync.Once
	aliceKey   *rsa.PrivateKey
	malloryKey *rsa.PrivateKey
	keysErr    error
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		aliceKey, keysErr = GenerateKey(MinKeyBits)
		if keysErr != nil {
			return
		}
		malloryKey, keysErr = GenerateKey(MinKeyBits)
	})
	require.NoError(t, keysErr)
	return aliceKey, malloryKey
}

func publicPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	out, err := EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(out)
}

func amount(t *testing.T, literal string) models.Amount {
	t.Helper()
	a, err := models.ParseAmount(literal)
	require.NoError(t, err)
	return a
}

// appendTx chains a draft onto ledger the way a single writer would.
func appendTx(t *testing.T, ledger []models.Transaction, draft models.Draft, keys KeyLookup) []models.Transaction {
	t.Helper()
	tx, err := Build(ledger, draft, keys)
	require.NoError(t, err)
	tx.ID = int64(len(ledger) + 1)
	return append(ledger, tx)
}

func unsigned(sender, recipient, timestamp string, a models.Amount) models.Draft {
	return models.Draft{Sender: sender, Recipient: recipient, Timestamp: timestamp, Amount: a}
}
