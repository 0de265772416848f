// Package credential holds the file-backed credential store used in development.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/domain/shared"
)

// DefaultFilePath is where credentials are kept when no path is configured.
const DefaultFilePath = ".auth-data.json"

type fileRecord struct {
	credential.AuthData
	Active bool `json:"active"`
}

// FileStore keeps every tenant's credentials in one JSON file. It is safe for
// concurrent use within a process; separate processes must not share the file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ credential.Store = (*FileStore)(nil)

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

func (s *FileStore) Get(_ context.Context, saleorAPIURL string) (*credential.AuthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.SaleorAPIURL == saleorAPIURL && r.Active {
			data := r.AuthData
			return &data, nil
		}
	}
	return nil, fmt.Errorf("%w: no active credentials for %s", shared.ErrNotFound, saleorAPIURL)
}

func (s *FileStore) Set(_ context.Context, data *credential.AuthData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	record := fileRecord{AuthData: *data, Active: true}
	if i := indexOf(records, data.SaleorAPIURL); i >= 0 {
		records[i] = record
	} else {
		records = append(records, record)
	}
	return s.save(records)
}

// Delete marks the tenant inactive. Deleting an unknown tenant is a no-op.
func (s *FileStore) Delete(_ context.Context, saleorAPIURL string) error {
	_, err := s.setActive(saleorAPIURL, false)
	return err
}

func (s *FileStore) Activate(_ context.Context, saleorAPIURL string) error {
	found, err := s.setActive(saleorAPIURL, true)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no credentials stored for %s", shared.ErrNotFound, saleorAPIURL)
	}
	return nil
}

func (s *FileStore) setActive(saleorAPIURL string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}
	i := indexOf(records, saleorAPIURL)
	if i < 0 {
		return false, nil
	}
	if records[i].Active == active {
		return true, nil
	}
	records[i].Active = active
	return true, s.save(records)
}

// GetAll lists active tenants in the order they were first stored.
func (s *FileStore) GetAll(_ context.Context) ([]credential.AuthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]credential.AuthData, 0, len(records))
	for _, r := range records {
		if r.Active {
			out = append(out, r.AuthData)
		}
	}
	return out, nil
}

// IsReady reports whether the file is readable. A missing file is ready.
func (s *FileStore) IsReady(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.load()
	return err
}

func (s *FileStore) load() ([]fileRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []fileRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return records, nil
}

// save replaces the file atomically.
func (s *FileStore) save(records []fileRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

func indexOf(records []fileRecord, saleorAPIURL string) int {
	for i := range records {
		if records[i].SaleorAPIURL == saleorAPIURL {
			return i
		}
	}
	return -1
}
