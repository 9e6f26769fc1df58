package modelstore

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// Store keeps named model files in a single directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating model store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file path a model with the given name is stored at.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes the model under the given name, replacing any previous
// version atomically.
func (s *Store) Save(name string, model *nonsense.FrequencyModel) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: invalid model name %q", apperrors.ErrInvalidInput, name)
	}
	return WriteFile(s.Path(name), model)
}

// Load reads the named model back from the store.
func (s *Store) Load(name string) (*nonsense.FrequencyModel, error) {
	return ReadFile(s.Path(name))
}

// Checksum returns the hex sha256 of the stored model file, recorded in the
// registry so a loaded model can be matched to its published metadata.
func (s *Store) Checksum(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrModelNotFound, name)
		}
		return "", fmt.Errorf("reading model file: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// List returns the names of all models present in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing model store: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	return names, nil
}
