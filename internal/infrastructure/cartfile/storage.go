package cartfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/cart"
)

// Storage keeps the cart as a JSON array in a single file.
type Storage struct {
	path string
}

var _ cart.Storage = (*Storage)(nil)

func New(path string) *Storage {
	return &Storage{path: path}
}

// DefaultPath is ~/.homeflavors/cart.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".homeflavors", "cart.json"), nil
}

func (s *Storage) Path() string { return s.path }

// Load returns an empty cart when the file is missing or unreadable as JSON.
func (s *Storage) Load(ctx context.Context) ([]cart.Item, error) {
	_ = ctx
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	var items []cart.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

// Save writes via a temp file and rename so a crash never leaves half a cart.
func (s *Storage) Save(ctx context.Context, items []cart.Item) error {
	_ = ctx
	if items == nil {
		items = []cart.Item{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*.json")
	if err != nil {
		return fmt.Errorf("create temp cart: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write cart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cart: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cart: %w", err)
	}
	return nil
}
