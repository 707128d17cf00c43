// Package quickaddr persists the user's quick-withdraw recipient.
package quickaddr

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
)

// Key is the preference key the address is stored under.
const Key = "quickWithdraw"

// Store is a single saved recipient address. Get returns "" when none is set.
type Store interface {
	Get() string
	Set(addr string) error
}

// Save validates addr and stores its checksummed form.
func Save(s Store, addr string) (string, error) {
	a, err := core.ParseAddress(addr)
	if err != nil {
		return "", err
	}
	if err := s.Set(a.Hex()); err != nil {
		return "", err
	}
	return a.Hex(), nil
}

// FileStore keeps the address in a small JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return ""
	}
	return m[Key]
}

func (s *FileStore) Set(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return err
	}
	m[Key] = addr
	return s.write(m)
}

// write replaces the file atomically: a failed write leaves the old one intact.
func (s *FileStore) write(m map[string]string) error {
	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	m := map[string]string{}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return m, nil
}
