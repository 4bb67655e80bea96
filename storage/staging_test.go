package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingExpertStore(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryExpertStore()
	require.NoError(t, base.Insert(ctx, newDoc(t, "1", "Jane", "Smith")))
	s := NewStagingExpertStore(base)

	require.NoError(t, s.Insert(ctx, newDoc(t, "2", "Max", "Mustermann")))
	got, err := s.FindByName(ctx, "Max", "Mustermann")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)
	assert.ErrorIs(t, s.Insert(ctx, newDoc(t, "1", "Jane", "Smith")), ErrDuplicateKey)

	changed := newDoc(t, "1", "Jane", "Smith", "nlp")
	require.NoError(t, s.Update(ctx, changed))
	got, err = s.FindByFullName(ctx, "Jane Smith")
	require.NoError(t, err)
	assert.Equal(t, "|nlp|", got.Tags, "staged version replaces the base hit")

	require.NoError(t, s.Delete(ctx, "1"))
	_, err = s.Get(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindByName(ctx, "Jane", "Smith")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, changed), ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, newDoc(t, "9", "Nie", "Da")), ErrNotFound)

	assert.Equal(t, 1, base.Len(), "base store stays untouched")
	stored, err := base.Get(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, stored.Tags)
}
