package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"expert-hub/models"
	"expert-hub/storage"
)

func newTestImporter(store storage.ExpertStore, runs storage.ImportRunStore) *ImportService {
	s := NewImportService(store, runs, nil, zap.NewNop())
	s.Normalizer.now = func() time.Time { return fixedNow }
	s.now = func() time.Time { return fixedNow }
	return s
}

func csvRecord(first, last, email string) models.RawRecord {
	return models.RawRecord{
		Source: models.SourceGermanCSV,
		Origin: "test.csv",
		Fields: map[string]any{"Vorname": first, "Nachname": last, "E-Mail": email, "Company": "Acme"},
	}
}

func TestImportBatchIndependence(t *testing.T) {
	store := storage.NewMemoryExpertStore()
	s := newTestImporter(store, nil)

	records := []models.RawRecord{
		csvRecord("Anna", "Alpha", "anna@example.com"),
		csvRecord("Ben", "Beta", "ben@example.com"),
		{Source: models.SourceAuto, Origin: "test.csv:4", Fields: map[string]any{"foo": "bar"}},
		csvRecord("Carla", "Gamma", "carla@example.com"),
		csvRecord("Dirk", "Delta", "dirk@example.com"),
	}
	res, err := s.Run(context.Background(), "test.csv", records, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 4, res.Added)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 4, store.Len())

	require.Len(t, res.Outcomes, 5)
	for i, o := range res.Outcomes {
		assert.Equal(t, i, o.Index)
	}
	assert.Equal(t, StatusError, res.Outcomes[2].Status)
	assert.Contains(t, res.Outcomes[2].Error, ErrUnrecognizedShape.Error())
	assert.Equal(t, "exp-carla-gamma", res.Outcomes[3].Slug)
}

func TestImportSkipsDuplicates(t *testing.T) {
	store := storage.NewMemoryExpertStore()
	s := newTestImporter(store, nil)

	records := []models.RawRecord{
		csvRecord("Jane", "Smith", "jane@example.com"),
		csvRecord("Jane", "Smith", "jane@example.com"),
	}
	res, err := s.Run(context.Background(), "dup.csv", records, ImportOptions{Mode: ModeSkipExisting})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, res.Outcomes[0].DocumentID, res.Outcomes[1].DocumentID)
	assert.Equal(t, 1, store.Len())
}

func TestImportMergeExisting(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryExpertStore()
	existing := storeExpert(t, store, "Jane", "Smith", "jane@example.com")
	s := newTestImporter(store, nil)

	rec := models.RawRecord{
		Source: models.SourceGermanCSV,
		Fields: map[string]any{"Vorname": "Jane", "Nachname": "Smith", "Company": "Acme", "Job Title": "CTO"},
	}
	res, err := s.Run(ctx, "merge.csv", []models.RawRecord{rec}, ImportOptions{Mode: ModeMergeExisting})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, existing.ID, res.Outcomes[0].DocumentID)

	doc, err := store.Get(ctx, existing.ID)
	require.NoError(t, err)
	e, err := doc.Expert()
	require.NoError(t, err)
	assert.Equal(t, "Acme", e.Institution.Name)
	assert.Equal(t, "CTO", e.Institution.Position)
	assert.Equal(t, "jane@example.com", e.PersonalInfo.Email, "empty CSV fields must not clear stored values")
	assert.Equal(t, fixedNow, e.UpdatedAt)
	assert.Equal(t, 1, store.Len())
}

func TestImportDryRun(t *testing.T) {
	store := storage.NewMemoryExpertStore()
	storeExpert(t, store, "Jane", "Smith", "jane@example.com")
	runs := storage.NewMemoryImportRunStore()
	s := newTestImporter(store, runs)

	records := []models.RawRecord{
		csvRecord("Jane", "Smith", "jane@example.com"),
		csvRecord("Max", "Mustermann", "max@example.com"),
	}
	res, err := s.Run(context.Background(), "dry.csv", records, ImportOptions{Mode: ModeMergeExisting, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, store.Len())

	saved, err := runs.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].DryRun)
	assert.Equal(t, "merge", saved[0].Mode)
	assert.Equal(t, 2, saved[0].Total)
}

func TestImportDryRunMatchesRealRun(t *testing.T) {
	records := []models.RawRecord{
		csvRecord("Jane", "Smith", "j@x.de"),
		csvRecord("Jane", "Smith", "j@x.de"),
	}

	for _, dryRun := range []bool{true, false} {
		store := storage.NewMemoryExpertStore()
		res, err := newTestImporter(store, nil).Run(context.Background(), "twice.csv", records, ImportOptions{DryRun: dryRun})
		require.NoError(t, err)

		assert.Equal(t, 1, res.Added, "dry run %v", dryRun)
		assert.Equal(t, 1, res.Skipped, "dry run %v", dryRun)
		assert.Equal(t, res.Outcomes[0].DocumentID, res.Outcomes[1].DocumentID)
		if dryRun {
			assert.Equal(t, 0, store.Len())
		} else {
			assert.Equal(t, 1, store.Len())
		}
	}
}

func TestImportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := storage.NewMemoryImportRunStore()
	s := newTestImporter(storage.NewMemoryExpertStore(), runs)
	res, err := s.Run(ctx, "cancel.csv", []models.RawRecord{csvRecord("Jane", "Smith", "")}, ImportOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Total)

	saved, err := runs.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, saved, 1, "partial runs are recorded")
}

// flakyStore lässt Inserts für bestimmte E-Mail-Adressen scheitern oder abstürzen.
type flakyStore struct {
	*storage.MemoryExpertStore
	failEmail  string
	panicEmail string
}

func (s *flakyStore) Insert(ctx context.Context, doc *models.ExpertDocument) error {
	switch doc.Email {
	case s.failEmail:
		return errors.New("disk full")
	case s.panicEmail:
		panic("driver bug")
	}
	return s.MemoryExpertStore.Insert(ctx, doc)
}

func TestImportStoreFailuresAreCounted(t *testing.T) {
	store := &flakyStore{
		MemoryExpertStore: storage.NewMemoryExpertStore(),
		failEmail:         "fail@example.com",
		panicEmail:        "panic@example.com",
	}
	s := newTestImporter(store, nil)

	records := []models.RawRecord{
		csvRecord("Fail", "Insert", "fail@example.com"),
		csvRecord("Panic", "Insert", "panic@example.com"),
		csvRecord("Jane", "Smith", "jane@example.com"),
	}
	res, err := s.Run(context.Background(), "flaky.csv", records, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 1, res.Added)
	assert.Contains(t, res.Outcomes[0].Error, "disk full")
	assert.True(t, strings.HasPrefix(res.Outcomes[1].Error, "panic:"))
	assert.Equal(t, 1, store.Len())
}

func TestImportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewImportMetrics(reg)
	s := newTestImporter(storage.NewMemoryExpertStore(), nil)
	s.Metrics = metrics

	records := []models.RawRecord{
		csvRecord("Jane", "Smith", "jane@example.com"),
		csvRecord("Jane", "Smith", "jane@example.com"),
		{Source: models.SourceAuto},
	}
	_, err := s.Run(context.Background(), "metrics.csv", records, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.batches))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.records.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.records.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.records.WithLabelValues("error")))
}
