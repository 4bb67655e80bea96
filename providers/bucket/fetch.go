package bucket

import (
	"context"
	"fmt"
	"path"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"expert-hub/models"
	"expert-hub/providers"
)

const maxParallelDownloads = 4

// ObjectSource ist der lesende Teil eines Objektspeichers (z.B. storage.S3Bucket).
type ObjectSource interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// Fetcher liest alle CSV- und JSON-Dateien unter einem Bucket-Präfix.
type Fetcher struct {
	Objects ObjectSource
	Prefix  string
	Logger  *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des Bucket-Fetchers.
func NewFetcher(objects ObjectSource, prefix string, logger *zap.Logger) *Fetcher {
	return &Fetcher{Objects: objects, Prefix: prefix, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "bucket:" + f.Prefix
}

// Read lädt die Dateien parallel und liefert die Datensätze in
// Schlüsselreihenfolge. Eine defekte Datei wird protokolliert und
// übersprungen, damit die übrigen importiert werden.
func (f *Fetcher) Read(ctx context.Context) ([]models.RawRecord, error) {
	log := f.Logger.With(zap.String("prefix", f.Prefix))

	keys, err := f.Objects.ListKeys(ctx, f.Prefix)
	if err != nil {
		return nil, fmt.Errorf("listing import files: %w", err)
	}
	sort.Strings(keys)

	perFile := make([][]models.RawRecord, len(keys))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for i, key := range keys {
		if !providers.Supported(key) {
			continue
		}
		g.Go(func() error {
			records, err := f.readFile(gCtx, key)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				log.Error("Importdatei übersprungen", zap.String("key", key), zap.Error(err))
				return nil
			}
			perFile[i] = records
			return nil
		})
	}
	waitErr := g.Wait()

	var records []models.RawRecord
	for _, fileRecords := range perFile {
		records = append(records, fileRecords...)
	}
	if waitErr != nil {
		return records, waitErr
	}
	log.Info("Bucket gelesen", zap.Int("files", len(keys)), zap.Int("records", len(records)))
	return records, nil
}

func (f *Fetcher) readFile(ctx context.Context, key string) ([]models.RawRecord, error) {
	data, err := f.Objects.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	p, err := providers.ForFile(path.Base(key), data, f.Logger)
	if err != nil {
		return nil, err
	}
	return p.Read(ctx)
}
