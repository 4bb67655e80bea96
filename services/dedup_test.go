package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expert-hub/models"
	"expert-hub/storage"
)

func storeExpert(t *testing.T, store storage.ExpertStore, first, last, email string) *models.ExpertDocument {
	t.Helper()
	e := models.NewExpertTemplate()
	e.ID = Slug(first, last)
	e.PersonalInfo.FirstName = first
	e.PersonalInfo.LastName = last
	e.PersonalInfo.FullName = FullName("", first, last)
	e.PersonalInfo.Email = email
	doc, err := models.NewExpertDocument(uuid.NewString(), models.SourceCanonical, e)
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), doc))
	return doc
}

func candidate(first, last, email string) *models.Expert {
	e := models.NewExpertTemplate()
	e.PersonalInfo.FirstName = first
	e.PersonalInfo.LastName = last
	e.PersonalInfo.FullName = FullName("", first, last)
	e.PersonalInfo.Email = email
	return e
}

func TestFindExistingPrecedence(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryExpertStore()
	byName := storeExpert(t, store, "Jane", "Smith", "other@example.com")
	byEmail := storeExpert(t, store, "John", "Doe", "jane@example.com")

	t.Run("email wins over name", func(t *testing.T) {
		got, err := FindExisting(ctx, store, candidate("Jane", "Smith", "jane@example.com"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, byEmail.ID, got.ID)
	})
	t.Run("full name without email", func(t *testing.T) {
		got, err := FindExisting(ctx, store, candidate("Jane", "Smith", ""))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, byName.ID, got.ID)
	})
	t.Run("unknown email falls back to name", func(t *testing.T) {
		got, err := FindExisting(ctx, store, candidate("Jane", "Smith", "new@example.com"))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, byName.ID, got.ID)
	})
	t.Run("first and last name", func(t *testing.T) {
		c := candidate("Jane", "Smith", "")
		c.PersonalInfo.FullName = "Prof. Jane Smith"
		got, err := FindExisting(ctx, store, c)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, byName.ID, got.ID)
	})
	t.Run("not found", func(t *testing.T) {
		got, err := FindExisting(ctx, store, candidate("Max", "Mustermann", "max@example.com"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})
	t.Run("empty candidate", func(t *testing.T) {
		got, err := FindExisting(ctx, store, models.NewExpertTemplate())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestFindExistingFirstInsertedWins(t *testing.T) {
	store := storage.NewMemoryExpertStore()
	first := storeExpert(t, store, "Jane", "Smith", "")
	storeExpert(t, store, "Jane", "Smith", "")

	got, err := FindExisting(context.Background(), store, candidate("Jane", "Smith", ""))
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

type failingFinder struct{ err error }

func (f failingFinder) FindByEmail(context.Context, string) (*models.ExpertDocument, error) {
	return nil, f.err
}

func (f failingFinder) FindByFullName(context.Context, string) (*models.ExpertDocument, error) {
	return nil, f.err
}

func (f failingFinder) FindByName(context.Context, string, string) (*models.ExpertDocument, error) {
	return nil, f.err
}

func TestFindExistingStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := FindExisting(context.Background(), failingFinder{err: boom}, candidate("Jane", "Smith", "jane@example.com"))
	assert.ErrorIs(t, err, boom)

	got, err := FindExisting(context.Background(), failingFinder{err: storage.ErrNotFound}, candidate("Jane", "Smith", "jane@example.com"))
	assert.NoError(t, err)
	assert.Nil(t, got)
}
