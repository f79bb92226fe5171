package secrets

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrMissingSecret = errors.New("secret not found")

const (
	QdrantURL    = "QDRANT_URL"
	QdrantKey    = "QDRANT_KEY"
	EmbeddingURL = "EMBEDDING_URL"
)

// Store holds the secrets handed to the process at startup.
// It is never mutated after construction, so concurrent reads need no lock.
type Store struct {
	values map[string]string
}

func New(all map[string]string) Store {
	values := make(map[string]string, len(all))
	for name, value := range all {
		values[name] = value
	}

	return Store{values}
}

// Load reads a flat YAML mapping of secret name to value.
func Load(path string) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return Store{}, err
	}
	defer f.Close()

	var all map[string]string
	if err := yaml.NewDecoder(f).Decode(&all); err != nil {
		return Store{}, err
	}

	return New(all), nil
}

// Merge returns a new Store where every non-empty override replaces the
// existing value.
func (s Store) Merge(overrides map[string]string) Store {
	values := make(map[string]string, len(s.values)+len(overrides))
	for name, value := range s.values {
		values[name] = value
	}

	for name, value := range overrides {
		if value == "" {
			continue
		}

		values[name] = value
	}

	return Store{values}
}

func (s Store) Get(name string) (string, error) {
	value, ok := s.values[name]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingSecret, name)
	}

	return value, nil
}
