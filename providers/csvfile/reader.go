package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"expert-hub/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader liest Expertendatensätze aus einer CSV-Datei mit Kopfzeile.
type Reader struct {
	name   string
	data   []byte
	Logger *zap.Logger
}

// New erstellt einen Leser für bereits geladene Dateiinhalte.
func New(name string, data []byte, logger *zap.Logger) *Reader {
	return &Reader{name: name, data: data, Logger: logger}
}

// Open lädt eine CSV-Datei von der Platte.
func Open(path string, logger *zap.Logger) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading csv file: %w", err)
	}
	return New(filepath.Base(path), data, logger), nil
}

// Name gibt den Dateinamen zurück.
func (r *Reader) Name() string {
	return r.name
}

// Read parst die Datei. Die Form aller Zeilen wird einmal anhand der
// Kopfzeile bestimmt; leere Zeilen werden übersprungen, zu kurze Zeilen
// aufgefüllt und zu lange abgeschnitten. Eine fehlerhafte Zeile liefert
// einen Datensatz mit SourceUnknown, damit der Import sie als Fehler zählt.
func (r *Reader) Read(ctx context.Context) ([]models.RawRecord, error) {
	log := r.Logger.With(zap.String("file", r.name))

	text, err := decode(r.data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = detectDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header of %s: %w", r.name, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	source := models.DetectHeaderSource(headers)
	if source == models.SourceUnknown {
		log.Warn("Kopfzeile enthält keine bekannten Namensspalten", zap.Strings("headers", headers))
	}

	var records []models.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// Die Zeile bleibt als Datensatz ohne Felder erhalten und wird
			// beim Import als Fehler gezählt; die übrigen Zeilen werden gelesen.
			log.Warn("Zeile konnte nicht geparst werden",
				zap.Int("line", parseErr.StartLine), zap.Error(parseErr.Err))
			records = append(records, models.RawRecord{
				Source: models.SourceUnknown,
				Origin: fmt.Sprintf("%s:%d", r.name, parseErr.StartLine),
			})
			continue
		}
		if err != nil {
			return records, fmt.Errorf("reading csv %s: %w", r.name, err)
		}
		line, _ := cr.FieldPos(0)
		if isEmptyRow(row) {
			continue
		}
		if len(row) != len(headers) {
			log.Warn("Zeile hat abweichende Spaltenzahl",
				zap.Int("line", line), zap.Int("columns", len(row)), zap.Int("expected", len(headers)))
		}

		fields := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			fields[h] = value
		}
		records = append(records, models.RawRecord{
			Source: source,
			Origin: fmt.Sprintf("%s:%d", r.name, line),
			Fields: fields,
		})
	}
	log.Info("CSV-Datei gelesen", zap.Int("records", len(records)), zap.String("shape", string(source)))
	return records, nil
}

// decode entfernt ein UTF-8-BOM und liest Nicht-UTF-8-Dateien als Windows-1252,
// wie sie Excel beim CSV-Export erzeugt.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding windows-1252 csv: %w", err)
	}
	return string(decoded), nil
}

// detectDelimiter wählt zwischen "," und ";" anhand der Kopfzeile.
func detectDelimiter(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
