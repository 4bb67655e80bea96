package storage

import (
	"context"
	"errors"

	"expert-hub/models"
)

// ErrNotFound wird geliefert, wenn kein passender Datensatz existiert.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey wird geliefert, wenn eine Dokument-ID bereits vergeben ist.
var ErrDuplicateKey = errors.New("duplicate key")

// ExpertQuery filtert die Expertenliste.
type ExpertQuery struct {
	Search string // Teilstring in vollem Namen, Institution oder Tags
	Tag    string // exakter Tag (ohne Groß-/Kleinschreibung)
	Limit  int
	Offset int
}

// ExpertStore ist die Dokumentensammlung der kanonischen Expertendatensätze.
type ExpertStore interface {
	FindByEmail(ctx context.Context, email string) (*models.ExpertDocument, error)
	FindByFullName(ctx context.Context, fullName string) (*models.ExpertDocument, error)
	FindByName(ctx context.Context, firstName, lastName string) (*models.ExpertDocument, error)
	Get(ctx context.Context, id string) (*models.ExpertDocument, error)
	List(ctx context.Context, q ExpertQuery) ([]models.ExpertDocument, error)
	Insert(ctx context.Context, doc *models.ExpertDocument) error
	Update(ctx context.Context, doc *models.ExpertDocument) error
	Delete(ctx context.Context, id string) error
}

// CompanyStore speichert Unternehmensdatensätze.
type CompanyStore interface {
	Get(ctx context.Context, id string) (*models.Company, error)
	FindByName(ctx context.Context, name string) (*models.Company, error)
	List(ctx context.Context, limit int) ([]models.Company, error)
	Insert(ctx context.Context, c *models.Company) error
	Update(ctx context.Context, c *models.Company) error
}

// ImportRunStore protokolliert abgeschlossene Batch-Importe.
type ImportRunStore interface {
	SaveRun(ctx context.Context, run *models.ImportRun) error
	ListRuns(ctx context.Context, limit int) ([]models.ImportRun, error)
}
