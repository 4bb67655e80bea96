package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ExpertDocument speichert einen kanonischen Datensatz als JSON-Dokument.
// Der Primärschlüssel ist eine generierte UUID und unabhängig vom Slug.
// Die Spalten neben Document sind Kopien für die Duplikatsuche.
type ExpertDocument struct {
	ID        string    `json:"_id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// InsertedAt ist der Einfügezeitpunkt in diesen Store; CreatedAt stammt
	// aus dem Datensatz und kann bei Importen älter sein.
	InsertedAt time.Time `json:"inserted_at" gorm:"autoCreateTime;index"`

	Slug      string `json:"slug" gorm:"index"`
	Email     string `json:"email" gorm:"index"`
	FullName  string `json:"full_name" gorm:"index"`
	FirstName string `json:"first_name" gorm:"index:idx_expert_documents_name,priority:1"`
	LastName  string `json:"last_name" gorm:"index:idx_expert_documents_name,priority:2"`
	Tags      string `json:"tags" gorm:"type:text"` // kleingeschrieben, "|"-getrennt für die Suche
	Source    string `json:"source" gorm:"index"`

	Document datatypes.JSON `json:"document" gorm:"type:jsonb;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExpertDocument) TableName() string {
	return "expert_documents"
}

// NewExpertDocument verpackt einen kanonischen Datensatz unter der gegebenen ID.
func NewExpertDocument(id string, source Source, e *Expert) (*ExpertDocument, error) {
	doc := &ExpertDocument{ID: id, Source: string(source)}
	if err := doc.SetExpert(e); err != nil {
		return nil, err
	}
	return doc, nil
}

// SetExpert ersetzt das Dokument und aktualisiert die Suchspalten.
func (d *ExpertDocument) SetExpert(e *Expert) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding expert document: %w", err)
	}
	d.Document = datatypes.JSON(data)
	d.Slug = e.ID
	d.Email = e.PersonalInfo.Email
	d.FullName = e.PersonalInfo.FullName
	d.FirstName = e.PersonalInfo.FirstName
	d.LastName = e.PersonalInfo.LastName
	d.Tags = JoinTags(e.Tags)
	d.CreatedAt = e.CreatedAt
	d.UpdatedAt = e.UpdatedAt
	return nil
}

// Expert dekodiert das gespeicherte Dokument.
func (d *ExpertDocument) Expert() (*Expert, error) {
	var e Expert
	if err := json.Unmarshal(d.Document, &e); err != nil {
		return nil, fmt.Errorf("decoding expert document %s: %w", d.ID, err)
	}
	return &e, nil
}

// JoinTags bildet die durchsuchbare Tag-Spalte ("|ai|robotics|").
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	lower := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lower = append(lower, t)
		}
	}
	if len(lower) == 0 {
		return ""
	}
	return "|" + strings.Join(lower, "|") + "|"
}

// StoredExpert ist die API-Sicht: kanonischer Datensatz plus Dokument-ID.
type StoredExpert struct {
	DocumentID string `json:"_id"`
	*Expert
}

// Stored dekodiert das Dokument in die API-Sicht.
func (d *ExpertDocument) Stored() (StoredExpert, error) {
	e, err := d.Expert()
	if err != nil {
		return StoredExpert{}, err
	}
	return StoredExpert{DocumentID: d.ID, Expert: e}, nil
}
