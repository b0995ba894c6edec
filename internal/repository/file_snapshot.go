package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSnapshotter stores the table set as one indented JSON document.
type FileSnapshotter struct {
	path string
}

func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

func (s *FileSnapshotter) Path() string {
	return s.path
}

func (s *FileSnapshotter) Load() (map[string][]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string][]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("Error trying to read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string][]Record), nil
	}

	return decodeSnapshot(data, s.path)
}

// Save writes to a temp file next to the target and renames it into place,
// so readers never see a half-written snapshot.
func (s *FileSnapshotter) Save(tables map[string][]Record) error {
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return fmt.Errorf("Error trying to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Error trying to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("Error trying to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("Error trying to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("Error trying to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("Error trying to replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSnapshotter) Close() error {
	return nil
}
