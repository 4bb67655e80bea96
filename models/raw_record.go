package models

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Source kennzeichnet die Form eines Rohdatensatzes. Die Form wird an der
// Systemgrenze (CSV-Leser, JSON-Leser, Formular-Handler) bestimmt.
type Source string

const (
	SourceCanonical Source = "canonical"
	SourceGermanCSV Source = "german_csv"
	SourceForm      Source = "form"
	// SourceAuto wird vom Normalizer per DetectSource aufgelöst.
	SourceAuto Source = "auto"
	// SourceUnknown ist keine erkannte Form.
	SourceUnknown Source = "unknown"
)

// Flache Feldnamen, auf die die Spalten-Aliase abgebildet werden.
const (
	FieldTitle           = "title"
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldCompany         = "company"
	FieldJobTitle        = "jobTitle"
	FieldFieldOfActivity = "fieldOfActivity"
	FieldHomepage        = "homepage"
	FieldLinkedIn        = "linkedin"
	FieldCompanyLink     = "companyLink"
	FieldComment         = "comment"
	FieldPriorCompany    = "priorCompany"
	FieldReference       = "reference"
	FieldReferenceLink   = "referenceLink"
	FieldAddress         = "address"
)

//go:embed field_aliases.yaml
var fieldAliasesYAML []byte

// fieldAliases: normalisierter Spaltenname -> flacher Feldname
var fieldAliases = mustLoadFieldAliases(fieldAliasesYAML)

func mustLoadFieldAliases(data []byte) map[string]string {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		panic(fmt.Sprintf("parsing field aliases: %v", err))
	}
	out := make(map[string]string)
	for field, aliases := range raw {
		out[NormalizeKey(field)] = field
		for _, alias := range aliases {
			out[NormalizeKey(alias)] = field
		}
	}
	return out
}

// NormalizeKey vereinheitlicht einen Spaltennamen für den Alias-Vergleich:
// NFC, Kleinbuchstaben, ohne Leerzeichen, "_" und "-".
func NormalizeKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFC.String(key)))
	return strings.NewReplacer(" ", "", "\u00a0", "", "_", "", "-", "").Replace(s)
}

// CanonicalField liefert den flachen Feldnamen zu einem Spaltennamen.
func CanonicalField(key string) (string, bool) {
	field, ok := fieldAliases[NormalizeKey(key)]
	return field, ok
}

// RawRecord ist ein Datensatz unbekannter Struktur, markiert mit seiner Herkunft.
type RawRecord struct {
	Source Source
	// Origin beschreibt die Fundstelle, z.B. "experts.csv:12".
	Origin string
	Fields map[string]any
}

// ResolvedSource liefert die Form; SourceAuto wird per DetectSource aufgelöst.
func (r RawRecord) ResolvedSource() Source {
	if r.Source == SourceAuto || r.Source == "" {
		return DetectSource(r.Fields)
	}
	return r.Source
}

// Lookup sucht ein flaches Feld über alle bekannten Aliase. Ein exakter
// Schlüssel hat Vorrang, danach gewinnt der erste nicht-leere Treffer in
// sortierter Schlüsselreihenfolge.
func (r RawRecord) Lookup(field string) (any, bool) {
	if v, ok := r.Fields[field]; ok {
		return v, true
	}
	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		if f, known := CanonicalField(key); known && f == field {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	for _, key := range keys {
		if v := r.Fields[key]; !isBlank(v) {
			return v, true
		}
	}
	return r.Fields[keys[0]], true
}

// String liefert ein flaches Feld als getrimmten String ("" wenn nicht vorhanden).
func (r RawRecord) String(field string) string {
	v, ok := r.Lookup(field)
	if !ok {
		return ""
	}
	return StringValue(v)
}

// StringValue wandelt einen Rohwert in einen getrimmten String um.
func StringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func isBlank(v any) bool {
	return StringValue(v) == ""
}

// DetectSource bestimmt die Form eines untypisierten Datensatzes.
// Reihenfolge: personalInfo -> Vor-/Nachname-Spalten -> name -> unbekannt.
func DetectSource(fields map[string]any) Source {
	if _, ok := fields["personalInfo"]; ok {
		return SourceCanonical
	}
	for key := range fields {
		if f, ok := CanonicalField(key); ok && (f == FieldFirstName || f == FieldLastName) {
			return SourceGermanCSV
		}
	}
	if _, ok := fields["name"]; ok {
		return SourceForm
	}
	return SourceUnknown
}

// DetectHeaderSource bestimmt die Form einer CSV-Datei anhand ihrer Kopfzeile.
func DetectHeaderSource(headers []string) Source {
	fields := make(map[string]any, len(headers))
	for _, h := range headers {
		fields[h] = nil
	}
	return DetectSource(fields)
}
