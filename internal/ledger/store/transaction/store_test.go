package transaction

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tallyman/internal/ledger/models"
	"tallyman/pkg/platform/sentinel"
)

type store interface {
	List(ctx context.Context) ([]models.Transaction, error)
	Append(ctx context.Context, tx *models.Transaction) error
}

// StoreSuite is the behaviour every transaction store shares.
type StoreSuite struct {
	suite.Suite
	newStore func() store
	store    store
	ctx      context.Context
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore()
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func() store { return NewInMemory() }})
}

func TestFileStoreSuite(t *testing.T) {
	s := &StoreSuite{}
	s.newStore = func() store {
		fs, err := NewFile(t.TempDir())
		if err != nil {
			t.Fatalf("new file store: %v", err)
		}
		return fs
	}
	suite.Run(t, s)
}

func (s *StoreSuite) tx(sender, recipient, amount, timestamp string) *models.Transaction {
	a, err := models.ParseAmount(amount)
	s.Require().NoError(err)
	return &models.Transaction{
		Sender:      sender,
		Recipient:   recipient,
		Amount:      a,
		Timestamp:   timestamp,
		Fingerprint: "f-" + timestamp,
	}
}

func (s *StoreSuite) TestEmptyLedger() {
	ledger, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(ledger)
}

func (s *StoreSuite) TestAppendAssignsSequentialIDs() {
	first := s.tx("alice", "bob", "50", "t1")
	second := s.tx("bob", "carol", "12.5", "t0")
	s.Require().NoError(s.store.Append(s.ctx, first))
	s.Require().NoError(s.store.Append(s.ctx, second))

	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
}

func (s *StoreSuite) TestListPreservesAppendOrderAndFields() {
	signed := s.tx("alice", "bob", "100.0", "t2")
	signed.Signature = "c2lnbmF0dXJl"
	s.Require().NoError(s.store.Append(s.ctx, s.tx("bob", "alice", "1e+16", "t3")))
	s.Require().NoError(s.store.Append(s.ctx, signed))

	ledger, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ledger, 2)

	s.Equal("t3", ledger[0].Timestamp)
	s.Equal("1e+16", ledger[0].Amount.String())
	s.Equal(*signed, ledger[1])
	s.Equal("100.0", ledger[1].Amount.String())
}

func (s *StoreSuite) TestListReturnsCopy() {
	s.Require().NoError(s.store.Append(s.ctx, s.tx("alice", "bob", "5", "t1")))

	ledger, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	ledger[0].Sender = "mallory"

	again, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Equal("alice", again[0].Sender)
}

func (s *StoreSuite) TestConcurrentAppendsGetDistinctIDs() {
	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Append(s.ctx, s.tx("alice", "bob", "1", "t")))
		}()
	}
	wg.Wait()

	ledger, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ledger, writers)
	seen := make(map[int64]bool)
	for _, tx := range ledger {
		s.False(seen[tx.ID], "duplicate id %d", tx.ID)
		seen[tx.ID] = true
	}
}

func TestInMemoryTamperHelpers(t *testing.T) {
	ctx := context.Background()
	st := NewInMemory()
	first := &models.Transaction{Sender: "alice", Recipient: "bob", Amount: models.AmountFromInt(1), Timestamp: "t1"}
	second := &models.Transaction{Sender: "bob", Recipient: "alice", Amount: models.AmountFromInt(2), Timestamp: "t2"}
	require.NoError(t, st.Append(ctx, first))
	require.NoError(t, st.Append(ctx, second))

	edited := *first
	edited.Amount = models.AmountFromInt(1000)
	assert.True(t, st.Replace(ctx, edited))
	assert.True(t, st.Delete(ctx, second.ID))
	assert.False(t, st.Delete(ctx, 99))
	assert.False(t, st.Replace(ctx, models.Transaction{ID: 42}))

	ledger, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "1000", ledger[0].Amount.String())
}

func TestFileStoreReadsLegacyLayout(t *testing.T) {
	dir := t.TempDir()
	legacy := `[
  {"id": 1, "p1": "alice", "p2": "bob", "a": 50, "t": "2025-01-01T00:00:00Z"},
  {"id": 2, "p1": "bob", "p2": "carol", "a": 12.50, "t": "2025-01-02T00:00:00Z", "h": "abc", "signature": "c2ln"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(legacy), 0o644))

	st, err := NewFile(dir)
	require.NoError(t, err)
	ledger, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ledger, 2)

	assert.Empty(t, ledger[0].Fingerprint)
	assert.Equal(t, "50", ledger[0].Amount.String())
	assert.Equal(t, "abc", ledger[1].Fingerprint)
	assert.Equal(t, "12.5", ledger[1].Amount.String())
	assert.Equal(t, "c2ln", ledger[1].Signature)
}

func TestFileStoreWritesLegacyKeys(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFile(dir)
	require.NoError(t, err)

	tx := &models.Transaction{Sender: "alice", Recipient: "bob", Amount: models.AmountFromInt(7), Timestamp: "t1", Fingerprint: "ff"}
	require.NoError(t, st.Append(context.Background(), tx))

	data, err := os.ReadFile(st.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"p1":"alice","p2":"bob","a":7,"t":"t1","h":"ff"}]`, string(data))
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	st, err := NewFile(dir)
	require.NoError(t, err)
	_, err = st.List(context.Background())
	assert.ErrorContains(t, err, "decode ledger file")
	assert.ErrorIs(t, err, sentinel.ErrCorrupt)
}
