package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expert-hub/models"
)

// MaxMergeDepth begrenzt die Rekursionstiefe von DeepMerge (z.B. bei zyklischen Maps).
const MaxMergeDepth = 64

// ErrMergeTooDeep wird geliefert, wenn die Quelle tiefer als MaxMergeDepth verschachtelt ist.
var ErrMergeTooDeep = errors.New("merge source nested too deeply")

// DeepMerge führt source rekursiv in target zusammen und gibt target zurück.
//
//   - fehlender Schlüssel in source: Zielwert bleibt erhalten
//   - verschachtelte Map: wird feldweise zusammengeführt
//   - alles andere (auch nil und Slices): überschreibt den Zielwert
//
// Slices werden nie elementweise gemischt, sondern komplett ersetzt.
func DeepMerge(target, source map[string]any) (map[string]any, error) {
	if target == nil {
		target = map[string]any{}
	}
	if err := deepMerge(target, source, 0); err != nil {
		return nil, err
	}
	return target, nil
}

func deepMerge(target, source map[string]any, depth int) error {
	if depth >= MaxMergeDepth {
		return ErrMergeTooDeep
	}
	for key, value := range source {
		nested, isMap := value.(map[string]any)
		if !isMap {
			target[key] = value
			continue
		}
		existing, ok := target[key].(map[string]any)
		if !ok {
			existing = map[string]any{}
			target[key] = existing
		}
		if err := deepMerge(existing, nested, depth+1); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// MergeExpert wendet einen Patch auf einen kanonischen Datensatz an.
// createdAt und der Slug bleiben erhalten, updatedAt wird auf now gesetzt.
func MergeExpert(target *models.Expert, patch map[string]any, now time.Time) (*models.Expert, error) {
	doc, err := toDocument(target)
	if err != nil {
		return nil, err
	}
	if _, err := DeepMerge(doc, patch); err != nil {
		return nil, err
	}
	var merged models.Expert
	if err := fromDocument(doc, &merged); err != nil {
		return nil, err
	}
	merged.ID = target.ID
	merged.CreatedAt = target.CreatedAt
	merged.UpdatedAt = now
	return &merged, nil
}

// SparsePatch wandelt einen normalisierten Datensatz in einen Patch um, der
// leere Strings, null, Nullwerte, leere Listen, leere Objekte und das
// Platzhalterbild weglässt. So überschreibt ein Update keine gespeicherten
// Werte mit Template-Standardwerten.
func SparsePatch(e *models.Expert) (map[string]any, error) {
	doc, err := toDocument(e)
	if err != nil {
		return nil, err
	}
	delete(doc, "createdAt")
	delete(doc, "updatedAt")
	delete(doc, "id")
	if info, ok := doc["personalInfo"].(map[string]any); ok && info["image"] == models.PlaceholderImage {
		delete(info, "image")
	}
	pruneEmpty(doc)
	return doc, nil
}

func pruneEmpty(m map[string]any) {
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			delete(m, key)
		case string:
			if v == "" {
				delete(m, key)
			}
		case float64:
			if v == 0 {
				delete(m, key)
			}
		case []any:
			if len(v) == 0 {
				delete(m, key)
			}
		case map[string]any:
			pruneEmpty(v)
			if len(v) == 0 {
				delete(m, key)
			}
		}
	}
}

// toDocument wandelt einen Wert über JSON in eine generische Map um.
func toDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// fromDocument dekodiert eine generische Map in einen typisierten Wert.
func fromDocument(doc map[string]any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}
