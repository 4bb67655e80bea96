package providers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"expert-hub/models"
	"expert-hub/providers/csvfile"
	"expert-hub/providers/jsonfile"
)

// Provider ist das Interface, das jede Importquelle (CSV, JSON, Bucket) implementieren muss.
type Provider interface {
	// Read liest alle Datensätze der Quelle in Eingabereihenfolge.
	Read(ctx context.Context) ([]models.RawRecord, error)

	// Name gibt den Namen der Quelle zurück (z.B. "experts.csv").
	Name() string
}

// ForFile wählt den Leser anhand der Dateiendung (.csv oder .json).
func ForFile(name string, data []byte, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return csvfile.New(name, data, logger), nil
	case ".json":
		return jsonfile.New(name, data, logger), nil
	default:
		return nil, fmt.Errorf("unsupported import file %q (expected .csv or .json)", name)
	}
}

// Supported meldet, ob ForFile die Datei lesen kann.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".json":
		return true
	}
	return false
}
