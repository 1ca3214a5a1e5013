package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a file encoding.
type Format string

// File formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func (f Format) ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode serialises state in format f.
func (f Format) Encode(state State) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(state)
	}
	return json.MarshalIndent(state, "", "  ")
}

// Decode parses state in format f.
func (f Format) Decode(data []byte) (State, error) {
	var state State
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &state)
	} else {
		err = json.Unmarshal(data, &state)
	}
	return state, err
}

// ReadFile loads a single state document, picking the format by extension.
func ReadFile(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	state, err := FormatForPath(path).Decode(data)
	if err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}
	return state, nil
}

// WriteFile writes a single state document, picking the format by extension.
func WriteFile(path string, state State) error {
	data, err := FormatForPath(path).Encode(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeAtomic(path, data)
}

// FileStore keeps one file per graph under a directory.
type FileStore struct {
	dir    string
	format Format

	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string, format Format) (*FileStore, error) {
	if format != FormatYAML {
		format = FormatJSON
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileStore{dir: dir, format: format, now: time.Now}, nil
}

// Path returns the file that holds graphID in the store's format.
func (s *FileStore) Path(graphID string) string {
	return filepath.Join(s.dir, graphID+s.format.ext())
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, state State) error {
	state, err := prepare(state, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	data, err := s.format.Encode(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeAtomic(s.Path(state.GraphID), data)
}

// Load implements Store. A file in the other format is read when the
// configured one is absent.
func (s *FileStore) Load(_ context.Context, graphID string) (State, error) {
	if err := validGraphID(graphID); err != nil {
		return State{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return State{}, ErrStoreClosed
	}

	for _, f := range []Format{s.format, other(s.format)} {
		data, err := os.ReadFile(filepath.Join(s.dir, graphID+f.ext()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return State{}, fmt.Errorf("read state: %w", err)
		}
		state, err := f.Decode(data)
		if err != nil {
			return State{}, fmt.Errorf("parse state: %w", err)
		}
		return checkVersion(state)
	}
	return State{}, ErrNotFound
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, graphID string) error {
	if err := validGraphID(graphID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	for _, f := range []Format{FormatJSON, FormatYAML} {
		err := os.Remove(filepath.Join(s.dir, graphID+f.ext()))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete state: %w", err)
		}
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func other(f Format) Format {
	if f == FormatYAML {
		return FormatJSON
	}
	return FormatYAML
}

// writeAtomic writes to a temp file in the same directory and renames it
// over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
