package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Storage is durable key-value storage that survives process restarts.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// DefaultPath returns ~/.local/state/ims/session.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "ims", "session.toml"), nil
}

// stateFile is the on-disk layout of a FileStorage.
type stateFile struct {
	Values map[string]string `toml:"values"`
}

// FileStorage keeps values in a TOML file readable only by the owner.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage returns storage backed by the file at path. The file and its
// directory are created on first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file path.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := st.Values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	st.Values[key] = value
	return f.save(st)
}

func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := st.Values[key]; !ok {
		return nil
	}
	delete(st.Values, key)
	return f.save(st)
}

func (f *FileStorage) load() (stateFile, error) {
	var st stateFile
	if _, err := toml.DecodeFile(f.path, &st); err != nil {
		if os.IsNotExist(err) {
			return stateFile{Values: map[string]string{}}, nil
		}
		return stateFile{}, fmt.Errorf("decoding %s: %w", f.path, err)
	}
	if st.Values == nil {
		st.Values = map[string]string{}
	}
	return st, nil
}

func (f *FileStorage) save(st stateFile) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(file).Encode(st); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", f.path, err)
	}
	return file.Close()
}

// MemoryStorage is an in-process Storage, mainly for tests.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
