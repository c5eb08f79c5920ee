package cartfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/cart"
)

func TestStorageRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cart.json")

	store, err := cart.Open(ctx, New(path))
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, cart.Item{ID: "p1", Name: "Margherita", Price: decimal.RequireFromString("14.99")}))
	require.NoError(t, store.Add(ctx, cart.Item{ID: "p1", Name: "Margherita", Price: decimal.RequireFromString("14.99")}))

	reopened, err := cart.Open(ctx, New(path))
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.TotalItems())
	assert.Equal(t, "29.98", reopened.TotalPrice().StringFixed(2))
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	items, err := New(filepath.Join(dir, "absent.json")).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	items, err = New(bad).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, New(path).Save(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
