package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"expert-hub/config"
	"expert-hub/models"
	"expert-hub/storage"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()
	logging.Info("Starte Export-Prozess...")

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Fehler beim Laden der Konfiguration", zap.Error(err))
	}
	if !cfg.S3Enabled() {
		logging.Fatal("S3 ist nicht konfiguriert (S3_KEY, S3_SECRET, S3_URL, S3_BUCKET)")
	}
	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 1. Alle Experten als gzip-komprimiertes JSON-Array
	docs, err := storage.NewGormExpertStore(db).List(ctx, storage.ExpertQuery{})
	if err != nil {
		logging.Fatal("Fehler beim Lesen der Experten", zap.Error(err))
	}
	data, err := createExport(docs)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des Exports", zap.Error(err))
	}

	// 2. S3-Client erstellen
	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}

	// 3. Export nach S3 hochladen
	key := exportKey(cfg.ExportPrefix, time.Now())
	link, err := storage.UploadFile(ctx, s3Client, cfg, key, data)
	if err != nil {
		logging.Fatal("Fehler beim Hochladen nach S3", zap.Error(err))
	}
	logging.Info("Export erfolgreich hochgeladen", zap.String("link", link), zap.Int("experts", len(docs)))

	// 4. Alte Exporte rotieren
	objects, err := storage.ListObjects(ctx, s3Client, cfg.S3Bucket, cfg.ExportPrefix)
	if err != nil {
		logging.Fatal("Fehler bei der Rotation alter Exporte", zap.Error(err))
	}
	for _, obj := range exportsToDelete(objects, cfg.KeepExports) {
		logging.Info("Lösche alten Export", zap.String("key", aws.ToString(obj.Key)))
		if err := storage.DeleteFile(ctx, s3Client, cfg.S3Bucket, aws.ToString(obj.Key)); err != nil {
			logging.Error("Fehler beim Löschen", zap.String("key", aws.ToString(obj.Key)), zap.Error(err))
		}
	}

	logging.Info("Export-Prozess erfolgreich abgeschlossen.")
}

// createExport schreibt die API-Sicht aller Dokumente als gzip-JSON.
func createExport(docs []models.ExpertDocument) ([]byte, error) {
	experts := make([]models.StoredExpert, 0, len(docs))
	for i := range docs {
		stored, err := docs[i].Stored()
		if err != nil {
			return nil, err
		}
		experts = append(experts, stored)
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gzipWriter).Encode(experts); err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportKey(prefix string, now time.Time) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%sexperts-%s.json.gz", prefix, now.UTC().Format("2006-01-02T15-04-05Z"))
}

// exportsToDelete liefert alle Exporte außer den keep neuesten.
func exportsToDelete(objects []types.Object, keep int) []types.Object {
	if len(objects) <= keep {
		return nil
	}
	sorted := append([]types.Object(nil), objects...)
	sort.Slice(sorted, func(i, j int) bool {
		return aws.ToTime(sorted[i].LastModified).After(aws.ToTime(sorted[j].LastModified))
	})
	return sorted[keep:]
}
