package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-ai/gatehouse/internal/storage"
)

func TestCreateGetList(t *testing.T) {
	svc := NewService(storage.New(t.TempDir()))
	ctx := context.Background()

	ws, err := svc.Create(ctx, "repo-1", "/work/checkout")
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.Equal(t, "repo-1", ws.RepositoryID)

	got, err := svc.Get(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "/work/checkout", got.Path)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetMissing(t *testing.T) {
	svc := NewService(storage.New(t.TempDir()))

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
