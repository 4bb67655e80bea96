package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"expert-hub/models"
)

// Reader liest Expertendatensätze aus einem JSON-Array. Ein einzelnes
// Objekt wird wie ein Array mit einem Element behandelt.
type Reader struct {
	name   string
	data   []byte
	Logger *zap.Logger
}

func New(name string, data []byte, logger *zap.Logger) *Reader {
	return &Reader{name: name, data: data, Logger: logger}
}

// Open lädt eine JSON-Datei von der Platte.
func Open(path string, logger *zap.Logger) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading json file: %w", err)
	}
	return New(filepath.Base(path), data, logger), nil
}

func (r *Reader) Name() string {
	return r.name
}

// Read dekodiert die Datei. Jedes Element wird per DetectSource markiert;
// Elemente, die keine Objekte sind, bleiben ohne Felder und scheitern
// später beim Normalisieren.
func (r *Reader) Read(ctx context.Context) ([]models.RawRecord, error) {
	data := bytes.TrimSpace(r.data)
	if len(data) == 0 {
		return nil, nil
	}

	var elements []any
	if data[0] == '{' {
		var single map[string]any
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", r.name, err)
		}
		elements = []any{single}
	} else if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", r.name, err)
	}

	records := make([]models.RawRecord, 0, len(elements))
	for i, el := range elements {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		origin := fmt.Sprintf("%s[%d]", r.name, i)
		fields, ok := el.(map[string]any)
		if !ok {
			r.Logger.Warn("JSON-Element ist kein Objekt", zap.String("origin", origin), zap.String("type", fmt.Sprintf("%T", el)))
			records = append(records, models.RawRecord{Source: models.SourceAuto, Origin: origin})
			continue
		}
		records = append(records, models.RawRecord{
			Source: models.DetectSource(fields),
			Origin: origin,
			Fields: fields,
		})
	}
	r.Logger.Info("JSON-Datei gelesen", zap.String("file", r.name), zap.Int("records", len(records)))
	return records, nil
}
