package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrEmptySlot is returned by Slot.Get when nothing has been persisted.
var ErrEmptySlot = errors.New("session slot is empty")

// Slot is a single durable key-value entry holding a serialized blob.
type Slot interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// MemorySlot keeps the blob in memory. Useful for tests and ephemeral clients.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemorySlot) Get(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrEmptySlot
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySlot) Set(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemorySlot) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// FileSlot persists the blob in a single file, replaced atomically on write.
type FileSlot struct {
	Path string
}

// NewFileSlot returns a slot stored at path.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{Path: path}
}

func (f *FileSlot) Get(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrEmptySlot
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return data, nil
}

func (f *FileSlot) Set(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileSlot) Clear(ctx context.Context) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
