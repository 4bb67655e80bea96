package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"expert-hub/models"
)

// GormCompanyStore speichert Unternehmen in PostgreSQL.
type GormCompanyStore struct {
	DB *gorm.DB
}

func NewGormCompanyStore(db *gorm.DB) *GormCompanyStore {
	return &GormCompanyStore{DB: db}
}

func (s *GormCompanyStore) Get(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByName vergleicht den Namen ohne Groß-/Kleinschreibung.
func (s *GormCompanyStore) FindByName(ctx context.Context, name string) (*models.Company, error) {
	var c models.Company
	if err := s.DB.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).Order("created_at asc").First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *GormCompanyStore) List(ctx context.Context, limit int) ([]models.Company, error) {
	query := s.DB.WithContext(ctx).Model(&models.Company{}).Order("name asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var companies []models.Company
	if err := query.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *GormCompanyStore) Insert(ctx context.Context, c *models.Company) error {
	return translate(s.DB.WithContext(ctx).Create(c).Error)
}

// Update schreibt alle Felder außer ID und CreatedAt; ein gelöschtes
// Unternehmen liefert ErrNotFound statt neu angelegt zu werden.
func (s *GormCompanyStore) Update(ctx context.Context, c *models.Company) error {
	res := s.DB.WithContext(ctx).Model(c).
		Where("id = ?", c.ID).
		Select("*").Omit("id", "created_at").
		Updates(c)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormImportRunStore protokolliert Importläufe in PostgreSQL.
type GormImportRunStore struct {
	DB *gorm.DB
}

func NewGormImportRunStore(db *gorm.DB) *GormImportRunStore {
	return &GormImportRunStore{DB: db}
}

func (s *GormImportRunStore) SaveRun(ctx context.Context, run *models.ImportRun) error {
	return s.DB.WithContext(ctx).Create(run).Error
}

func (s *GormImportRunStore) ListRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	query := s.DB.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var runs []models.ImportRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// AutoMigrate legt alle Tabellen des Dienstes an bzw. aktualisiert sie.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ExpertDocument{}, &models.Company{}, &models.ImportRun{})
}
