// Package snapshot persists entity mappings as YAML files and reports how a
// freshly computed mapping differs from the one stored by the previous run.
//
// Files are read once and overwritten without locking. Callers running
// several conversions against the same directory must serialize them.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrCorrupt is returned when a snapshot file exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt snapshot")

const fileExt = ".yml"

// Store keeps one YAML file per key under Dir. Each file holds a single
// top-level key mapping entity names to entity records.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the file used for key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.Dir, key+fileExt)
}

// Load returns the mapping stored under key. A missing file or a missing
// key yields a nil mapping and no error.
func (s *Store) Load(key string) (map[string]any, error) {
	return LoadFile(s.Path(key), key)
}

// LoadFile reads the mapping stored under key in the YAML file at path.
func LoadFile(path, key string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil, nil
	}
	payload, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: key %q holds %T, not a mapping", ErrCorrupt, path, key, raw)
	}
	return payload, nil
}

// Save overwrites the file for key with data. Keys are written in sorted
// order and non-ASCII text is kept as is.
func (s *Store) Save(key string, data map[string]any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", s.Dir, err)
	}
	out, err := Encode(key, data)
	if err != nil {
		return err
	}

	path := s.Path(key)
	tmp, err := os.CreateTemp(s.Dir, "."+key+"-*"+fileExt)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Encode renders data under key the way Save writes it.
func Encode(key string, data map[string]any) ([]byte, error) {
	out, err := yaml.Marshal(map[string]any{key: data})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return out, nil
}

// Normalize round-trips data through the YAML encoding so that it compares
// equal to a mapping loaded back from disk.
func Normalize(data map[string]any) (map[string]any, error) {
	out, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("normalize snapshot: %w", err)
	}
	var normalized map[string]any
	if err := yaml.Unmarshal(out, &normalized); err != nil {
		return nil, fmt.Errorf("normalize snapshot: %w", err)
	}
	if normalized == nil {
		normalized = map[string]any{}
	}
	return normalized, nil
}
