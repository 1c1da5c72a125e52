package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tallyman/internal/ledger/models"
	"tallyman/pkg/platform/sentinel"
)

// FileName is the ledger file inside the data directory.
const FileName = "tx.json"

// record is the on-disk layout. The short keys keep files written by the
// earlier Python service readable.
type record struct {
	ID        int64         `json:"id"`
	Sender    string        `json:"p1,omitempty"`
	Recipient string        `json:"p2,omitempty"`
	Amount    models.Amount `json:"a"`
	Timestamp string        `json:"t,omitempty"`
	Hash      string        `json:"h,omitempty"`
	Signature string        `json:"signature,omitempty"`
}

func toRecord(tx models.Transaction) record {
	return record{
		ID:        tx.ID,
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
		Hash:      tx.Fingerprint,
		Signature: tx.Signature,
	}
}

func (r record) transaction() models.Transaction {
	return models.Transaction{
		ID:          r.ID,
		Sender:      r.Sender,
		Recipient:   r.Recipient,
		Amount:      r.Amount,
		Timestamp:   r.Timestamp,
		Fingerprint: r.Hash,
		Signature:   r.Signature,
	}
}

// FileStore persists the ledger as a JSON array. The file is re-read on every
// List so out-of-band edits are visible to the next audit.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFile creates dir if needed and seeds an empty ledger file.
func NewFile(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStore{path: filepath.Join(dir, FileName)}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the ledger file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) List(_ context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(records))
	for _, r := range records {
		out = append(out, r.transaction())
	}
	return out, nil
}

// Append assigns ID = current length + 1 and rewrites the file.
func (s *FileStore) Append(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	tx.ID = int64(len(records)) + 1
	return s.write(append(records, toRecord(*tx)))
}

func (s *FileStore) read() ([]record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode ledger file: %w: %w", sentinel.ErrCorrupt, err)
	}
	return records, nil
}

// write replaces the file atomically through a sibling temp file.
func (s *FileStore) write(records []record) error {
	if records == nil {
		records = []record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tx-*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
