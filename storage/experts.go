package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"expert-hub/models"
)

// GormExpertStore speichert Expertendokumente in PostgreSQL (jsonb).
type GormExpertStore struct {
	DB *gorm.DB
}

// NewGormExpertStore erstellt einen Store auf der gegebenen Verbindung.
func NewGormExpertStore(db *gorm.DB) *GormExpertStore {
	return &GormExpertStore{DB: db}
}

func (s *GormExpertStore) FindByEmail(ctx context.Context, email string) (*models.ExpertDocument, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *GormExpertStore) FindByFullName(ctx context.Context, fullName string) (*models.ExpertDocument, error) {
	return s.first(ctx, "full_name = ?", fullName)
}

func (s *GormExpertStore) FindByName(ctx context.Context, firstName, lastName string) (*models.ExpertDocument, error) {
	return s.first(ctx, "first_name = ? AND last_name = ?", firstName, lastName)
}

func (s *GormExpertStore) Get(ctx context.Context, id string) (*models.ExpertDocument, error) {
	return s.first(ctx, "id = ?", id)
}

// first liefert den zuerst eingefügten passenden Datensatz.
func (s *GormExpertStore) first(ctx context.Context, query string, args ...any) (*models.ExpertDocument, error) {
	var doc models.ExpertDocument
	err := s.DB.WithContext(ctx).Where(query, args...).Order("inserted_at asc, id asc").First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *GormExpertStore) List(ctx context.Context, q ExpertQuery) ([]models.ExpertDocument, error) {
	query := s.DB.WithContext(ctx).Model(&models.ExpertDocument{})
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where("full_name ILIKE ? OR tags ILIKE ? OR document->'institution'->>'name' ILIKE ?", like, like, like)
	}
	if q.Tag != "" {
		query = query.Where("tags LIKE ?", "%|"+strings.ToLower(strings.TrimSpace(q.Tag))+"|%")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	var docs []models.ExpertDocument
	if err := query.Order("created_at desc").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormExpertStore) Insert(ctx context.Context, doc *models.ExpertDocument) error {
	return translate(s.DB.WithContext(ctx).Create(doc).Error)
}

// Update schreibt ein vorhandenes Dokument. Anders als Save legt es keine
// Zeile an, wenn das Dokument inzwischen gelöscht wurde.
func (s *GormExpertStore) Update(ctx context.Context, doc *models.ExpertDocument) error {
	res := s.DB.WithContext(ctx).Model(&models.ExpertDocument{}).
		Where("id = ?", doc.ID).
		Updates(documentColumns(doc))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// documentColumns sind die Spalten, die Update überschreibt.
func documentColumns(doc *models.ExpertDocument) map[string]any {
	return map[string]any{
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
		"slug":       doc.Slug,
		"email":      doc.Email,
		"full_name":  doc.FullName,
		"first_name": doc.FirstName,
		"last_name":  doc.LastName,
		"tags":       doc.Tags,
		"source":     doc.Source,
		"document":   doc.Document,
	}
}

func (s *GormExpertStore) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&models.ExpertDocument{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translate bildet gorm-Fehler auf die Fehler dieses Pakets ab.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}
