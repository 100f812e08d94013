package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileKV keeps every key in a single JSON object on disk. Writes go to a
// temporary file first and are renamed into place.
type FileKV struct {
	FilePath string
	mu       sync.RWMutex
	data     map[string]string
}

// NewFileKV opens (or creates) the store at filePath. A file that is not a
// JSON object is logged and treated as empty; it is overwritten on the next Set.
func NewFileKV(filePath string) (*FileKV, error) {
	s := &FileKV{FilePath: filePath, data: make(map[string]string)}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if err := s.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

func (s *FileKV) loadFromFile() error {
	raw, err := os.ReadFile(s.FilePath)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		slog.Warn("data file is not valid JSON, starting empty", "path", s.FilePath, "err", err)
		s.data = make(map[string]string)
	}
	return nil
}

func (s *FileKV) saveToFile() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.FilePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.FilePath)
}

func (s *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.saveToFile()
}

// SetMany applies every entry and flushes the file once. The in-memory copy
// is rolled back when the flush fails.
func (s *FileKV) SetMany(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := make(map[string]string, len(s.data))
	for k, v := range s.data {
		prev[k] = v
	}
	for _, e := range entries {
		s.data[e.Key] = e.Value
	}
	if err := s.saveToFile(); err != nil {
		s.data = prev
		return err
	}
	return nil
}

// Ping checks that the data directory is still reachable.
func (s *FileKV) Ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(s.FilePath))
	return err
}

func (s *FileKV) Close() error { return nil }
