package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"expert-hub/models"
	"expert-hub/storage"
)

// ImportMode legt fest, was mit bereits vorhandenen Experten passiert.
type ImportMode string

const (
	// ModeSkipExisting überspringt Duplikate (Standard).
	ModeSkipExisting ImportMode = "skip"
	// ModeMergeExisting führt neue Felder in den vorhandenen Datensatz zusammen.
	ModeMergeExisting ImportMode = "merge"
)

// OutcomeStatus ist das Ergebnis eines einzelnen Datensatzes.
type OutcomeStatus string

const (
	StatusAdded   OutcomeStatus = "added"
	StatusUpdated OutcomeStatus = "updated"
	StatusSkipped OutcomeStatus = "skipped"
	StatusError   OutcomeStatus = "error"
)

// ImportOptions steuern einen Batch-Import.
type ImportOptions struct {
	Mode ImportMode
	// RecordTimeout begrenzt die Store-Aufrufe eines Datensatzes (0 = ohne).
	RecordTimeout time.Duration
	// DryRun normalisiert und prüft Duplikate, schreibt aber nichts. Die
	// Schreibzugriffe landen in einem StagingExpertStore, damit auch
	// Duplikate innerhalb des Batches erkannt werden.
	DryRun bool
}

// RecordOutcome beschreibt, was mit einem Eingabedatensatz passiert ist.
type RecordOutcome struct {
	Index      int           `json:"index"`
	Origin     string        `json:"origin,omitempty"`
	Status     OutcomeStatus `json:"status"`
	DocumentID string        `json:"document_id,omitempty"`
	Slug       string        `json:"slug,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// ImportResult enthält die Zähler eines Batch-Imports.
type ImportResult struct {
	Source   string          `json:"source"`
	Total    int             `json:"total"`
	Added    int             `json:"added"`
	Updated  int             `json:"updated"`
	Skipped  int             `json:"skipped"`
	Errors   int             `json:"errors"`
	Outcomes []RecordOutcome `json:"outcomes"`
}

// ImportMetrics zählt importierte Datensätze nach Ergebnis.
type ImportMetrics struct {
	records *prometheus.CounterVec
	batches prometheus.Counter
}

// NewImportMetrics registriert die Import-Metriken bei reg.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expert_import_records_total",
				Help: "Total number of imported expert records by outcome.",
			},
			[]string{"status"},
		),
		batches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expert_import_batches_total",
				Help: "Total number of finished import batches.",
			},
		),
	}
	reg.MustRegister(m.records, m.batches)
	return m
}

func (m *ImportMetrics) observe(res *ImportResult) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.records.WithLabelValues(string(StatusAdded)).Add(float64(res.Added))
	m.records.WithLabelValues(string(StatusUpdated)).Add(float64(res.Updated))
	m.records.WithLabelValues(string(StatusSkipped)).Add(float64(res.Skipped))
	m.records.WithLabelValues(string(StatusError)).Add(float64(res.Errors))
}

// ImportService kümmert sich um die Orchestrierung eines Batch-Imports:
// normalisieren, Duplikat suchen, einfügen oder überspringen.
type ImportService struct {
	Store      storage.ExpertStore
	Runs       storage.ImportRunStore // optional
	Normalizer *ExpertNormalizer
	Metrics    *ImportMetrics // optional
	Logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewImportService erstellt eine neue Instanz des ImportService.
func NewImportService(store storage.ExpertStore, runs storage.ImportRunStore, metrics *ImportMetrics, logger *zap.Logger) *ImportService {
	return &ImportService{
		Store:      store,
		Runs:       runs,
		Normalizer: NewExpertNormalizer(logger),
		Metrics:    metrics,
		Logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run verarbeitet die Datensätze nacheinander in Eingabereihenfolge.
// Fehler einzelner Datensätze werden gezählt und brechen den Batch nicht ab.
// Nur ein abgebrochener Kontext beendet den Lauf vorzeitig; dann wird das
// Teilergebnis zusammen mit dem Kontextfehler geliefert.
func (s *ImportService) Run(ctx context.Context, source string, records []models.RawRecord, opts ImportOptions) (*ImportResult, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSkipExisting
	}
	log := s.Logger.With(zap.String("source", source), zap.String("mode", string(opts.Mode)), zap.Bool("dry_run", opts.DryRun))
	log.Info("Starte Import", zap.Int("records", len(records)))

	store := s.Store
	if opts.DryRun {
		store = storage.NewStagingExpertStore(s.Store)
	}

	started := s.now()
	res := &ImportResult{Source: source, Outcomes: make([]RecordOutcome, 0, len(records))}

	var runErr error
	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		res.Total++

		outcome := s.processRecord(ctx, store, i, raw, opts)
		switch outcome.Status {
		case StatusAdded:
			res.Added++
		case StatusUpdated:
			res.Updated++
		case StatusSkipped:
			res.Skipped++
		case StatusError:
			res.Errors++
			log.Warn("Datensatz konnte nicht importiert werden",
				zap.Int("index", i), zap.String("origin", raw.Origin), zap.String("error", outcome.Error))
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}

	s.Metrics.observe(res)
	s.saveRun(ctx, res, opts, s.now().Sub(started), log)

	log.Info("Import abgeschlossen",
		zap.Int("total", res.Total), zap.Int("added", res.Added), zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped), zap.Int("errors", res.Errors))
	return res, runErr
}

// processRecord verarbeitet genau einen Datensatz. Panics werden als Fehler gewertet.
func (s *ImportService) processRecord(ctx context.Context, store storage.ExpertStore, index int, raw models.RawRecord, opts ImportOptions) (outcome RecordOutcome) {
	outcome = RecordOutcome{Index: index, Origin: raw.Origin}
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = StatusError
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	candidate, err := s.Normalizer.Normalize(raw)
	if err != nil {
		outcome.Status = StatusError
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Slug = candidate.ID

	if opts.RecordTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.RecordTimeout)
		defer cancel()
	}

	existing, err := FindExisting(ctx, store, candidate)
	if err != nil {
		outcome.Status = StatusError
		outcome.Error = fmt.Sprintf("duplicate lookup: %v", err)
		return outcome
	}

	if existing != nil {
		outcome.DocumentID = existing.ID
		if opts.Mode != ModeMergeExisting {
			outcome.Status = StatusSkipped
			return outcome
		}
		if err := s.mergeInto(ctx, store, existing, candidate); err != nil {
			outcome.Status = StatusError
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Status = StatusUpdated
		return outcome
	}

	doc, err := models.NewExpertDocument(s.newID(), raw.ResolvedSource(), candidate)
	if err != nil {
		outcome.Status = StatusError
		outcome.Error = err.Error()
		return outcome
	}
	if err := store.Insert(ctx, doc); err != nil {
		outcome.Status = StatusError
		outcome.Error = fmt.Sprintf("insert: %v", err)
		return outcome
	}
	outcome.DocumentID = doc.ID
	outcome.Status = StatusAdded
	return outcome
}

// mergeInto führt die nicht-leeren Felder des Kandidaten in den vorhandenen Datensatz.
func (s *ImportService) mergeInto(ctx context.Context, store storage.ExpertStore, existing *models.ExpertDocument, candidate *models.Expert) error {
	current, err := existing.Expert()
	if err != nil {
		return err
	}
	patch, err := SparsePatch(candidate)
	if err != nil {
		return err
	}
	merged, err := MergeExpert(current, patch, s.now())
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := existing.SetExpert(merged); err != nil {
		return err
	}
	if err := store.Update(ctx, existing); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func (s *ImportService) saveRun(ctx context.Context, res *ImportResult, opts ImportOptions, took time.Duration, log *zap.Logger) {
	if s.Runs == nil {
		return
	}
	run := &models.ImportRun{
		Source:   res.Source,
		Mode:     string(opts.Mode),
		DryRun:   opts.DryRun,
		Total:    res.Total,
		Added:    res.Added,
		Updated:  res.Updated,
		Skipped:  res.Skipped,
		Errors:   res.Errors,
		Duration: took.Milliseconds(),
	}
	// Das Protokoll soll auch nach einem Abbruch geschrieben werden.
	if err := s.Runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error("Importprotokoll konnte nicht gespeichert werden", zap.Error(err))
	}
}
