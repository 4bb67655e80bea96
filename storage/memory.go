package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"expert-hub/models"
)

// MemoryExpertStore hält Dokumente im Speicher, z.B. für Probeläufe.
// Die Suchreihenfolge ist die Einfügereihenfolge.
type MemoryExpertStore struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]models.ExpertDocument
}

func NewMemoryExpertStore() *MemoryExpertStore {
	return &MemoryExpertStore{docs: make(map[string]models.ExpertDocument)}
}

func (s *MemoryExpertStore) FindByEmail(_ context.Context, email string) (*models.ExpertDocument, error) {
	return s.first(func(d *models.ExpertDocument) bool { return d.Email == email })
}

func (s *MemoryExpertStore) FindByFullName(_ context.Context, fullName string) (*models.ExpertDocument, error) {
	return s.first(func(d *models.ExpertDocument) bool { return d.FullName == fullName })
}

func (s *MemoryExpertStore) FindByName(_ context.Context, firstName, lastName string) (*models.ExpertDocument, error) {
	return s.first(func(d *models.ExpertDocument) bool {
		return d.FirstName == firstName && d.LastName == lastName
	})
}

func (s *MemoryExpertStore) Get(_ context.Context, id string) (*models.ExpertDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDocument(doc), nil
}

func (s *MemoryExpertStore) first(match func(*models.ExpertDocument) bool) (*models.ExpertDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		doc := s.docs[id]
		if match(&doc) {
			return copyDocument(doc), nil
		}
	}
	return nil, ErrNotFound
}

// List liefert die neuesten Dokumente zuerst.
func (s *MemoryExpertStore) List(_ context.Context, q ExpertQuery) ([]models.ExpertDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	tag := "|" + strings.ToLower(strings.TrimSpace(q.Tag)) + "|"
	var out []models.ExpertDocument
	for i := len(s.order) - 1; i >= 0; i-- {
		doc := s.docs[s.order[i]]
		if search != "" && !matchesSearch(&doc, search) {
			continue
		}
		if q.Tag != "" && !strings.Contains(doc.Tags, tag) {
			continue
		}
		out = append(out, *copyDocument(doc))
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// matchesSearch prüft dieselben Felder wie GormExpertStore.List:
// vollen Namen, Tags und Name der Institution.
func matchesSearch(doc *models.ExpertDocument, search string) bool {
	if strings.Contains(strings.ToLower(doc.FullName), search) || strings.Contains(doc.Tags, search) {
		return true
	}
	e, err := doc.Expert()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Institution.Name), search)
}

func (s *MemoryExpertStore) Insert(_ context.Context, doc *models.ExpertDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return ErrDuplicateKey
	}
	s.docs[doc.ID] = *copyDocument(*doc)
	s.order = append(s.order, doc.ID)
	return nil
}

func (s *MemoryExpertStore) Update(_ context.Context, doc *models.ExpertDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; !exists {
		return ErrNotFound
	}
	s.docs[doc.ID] = *copyDocument(*doc)
	return nil
}

func (s *MemoryExpertStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[id]; !exists {
		return ErrNotFound
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len liefert die Anzahl gespeicherter Dokumente.
func (s *MemoryExpertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func copyDocument(doc models.ExpertDocument) *models.ExpertDocument {
	doc.Document = append([]byte(nil), doc.Document...)
	return &doc
}

// MemoryCompanyStore hält Unternehmen im Speicher.
type MemoryCompanyStore struct {
	mu        sync.RWMutex
	companies map[string]models.Company
}

func NewMemoryCompanyStore() *MemoryCompanyStore {
	return &MemoryCompanyStore{companies: make(map[string]models.Company)}
}

func (s *MemoryCompanyStore) Get(_ context.Context, id string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryCompanyStore) FindByName(_ context.Context, name string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.sorted() {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryCompanyStore) List(_ context.Context, limit int) ([]models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sorted()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryCompanyStore) Insert(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.companies[c.ID]; exists {
		return ErrDuplicateKey
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *MemoryCompanyStore) Update(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.companies[c.ID]; !exists {
		return ErrNotFound
	}
	s.companies[c.ID] = *c
	return nil
}

// sorted liefert die Unternehmen nach Anlagezeitpunkt (Aufrufer hält das Lock).
func (s *MemoryCompanyStore) sorted() []models.Company {
	out := make([]models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// MemoryImportRunStore hält Importprotokolle im Speicher.
type MemoryImportRunStore struct {
	mu   sync.Mutex
	runs []models.ImportRun
}

func NewMemoryImportRunStore() *MemoryImportRunStore {
	return &MemoryImportRunStore{}
}

func (s *MemoryImportRunStore) SaveRun(_ context.Context, run *models.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uint(len(s.runs) + 1)
	s.runs = append(s.runs, *run)
	return nil
}

// ListRuns liefert die neuesten Läufe zuerst.
func (s *MemoryImportRunStore) ListRuns(_ context.Context, limit int) ([]models.ImportRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ImportRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
