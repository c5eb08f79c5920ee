package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dommenu "github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
)

type fakeRepo struct {
	items []dommenu.Item
	err   error
}

func (f fakeRepo) All(context.Context) ([]dommenu.Item, error) { return f.items, f.err }

func TestListMenuGroups(t *testing.T) {
	uc := NewListMenuUseCase(fakeRepo{items: []dommenu.Item{
		{ID: "1", Name: "Samosa", Category: "Starters"},
		{ID: "2", Name: "Korma", Category: "Mains"},
		{ID: "3", Name: "Pakora", Category: "Starters"},
	}}, nil)

	got, err := uc.Execute(context.Background(), ListMenuInput{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Starters", got[0].Category)
	assert.Len(t, got[0].Items, 2)
}

func TestListMenuWrapsError(t *testing.T) {
	boom := errors.New("server selection timeout")
	_, err := NewListMenuUseCase(fakeRepo{err: boom}, nil).Execute(context.Background(), ListMenuInput{})
	assert.ErrorIs(t, err, boom)
}
