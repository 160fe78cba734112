package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileName = "metadata.json"

// NewFileRepository returns a Repository persisted as a single JSON
// file inside root. Mutations are serialized by a writer lock and the
// file is replaced atomically, so a crash mid-write leaves the prior
// state intact.
func NewFileRepository(root string) Repository {
	return &fileRepository{
		path: filepath.Join(root, fileName),
	}
}

type fileRepository struct {
	mu   sync.Mutex
	path string
}

func (repo *fileRepository) All() (map[string]Record, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return repo.load()
}

func (repo *fileRepository) Upsert(name string, record Record) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	records, err := repo.load()
	if err != nil {
		return err
	}

	records[name] = record

	return repo.save(records)
}

func (repo *fileRepository) Remove(name string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	records, err := repo.load()
	if err != nil {
		return err
	}

	if _, ok := records[name]; !ok {
		return nil
	}

	delete(records, name)

	return repo.save(records)
}

func (repo *fileRepository) load() (map[string]Record, error) {
	// MkdirAll tolerates concurrent creation of the storage root.
	if err := os.MkdirAll(filepath.Dir(repo.path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	data, err := os.ReadFile(repo.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]Record), nil
		}

		return nil, fmt.Errorf("read ledger: %w", err)
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	return records, nil
}

func (repo *fileRepository) save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(repo.path), fileName+".*")
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write ledger: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write ledger: %w", err)
	}

	if err := os.Rename(tmp.Name(), repo.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace ledger: %w", err)
	}

	return nil
}
