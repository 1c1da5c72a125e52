package keys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"tallyman/pkg/platform/sentinel"
)

// FileName is the registry file inside the data directory.
const FileName = "keys.json"

// FileStore persists the registry as a JSON object of party to key text.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFile creates dir if needed and seeds an empty registry file.
func NewFile(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &FileStore{path: filepath.Join(dir, FileName)}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(map[string]string{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) Save(_ context.Context, party, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.read()
	if err != nil {
		return err
	}
	keys[party] = publicKey
	return s.write(keys)
}

func (s *FileStore) Find(_ context.Context, party string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.read()
	if err != nil {
		return "", err
	}
	key, ok := keys[party]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return key, nil
}

func (s *FileStore) All(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	keys := make(map[string]string)
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode key file: %w: %w", sentinel.ErrCorrupt, err)
	}
	return keys, nil
}

func (s *FileStore) write(keys map[string]string) error {
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}
