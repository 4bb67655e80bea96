package storage

import (
	"context"
	"errors"
	"sync"

	"expert-hub/models"
)

// StagingExpertStore legt einen MemoryExpertStore über einen anderen Store.
// Lesezugriffe sehen zuerst die vorgemerkten Änderungen, dann den Basis-Store;
// Schreibzugriffe landen nur im Speicher. Der Basis-Store wird nie verändert,
// so dass ein Probelauf dieselben Duplikate findet wie ein echter Lauf.
type StagingExpertStore struct {
	Base   ExpertStore
	staged *MemoryExpertStore

	mu      sync.RWMutex
	deleted map[string]bool
}

func NewStagingExpertStore(base ExpertStore) *StagingExpertStore {
	return &StagingExpertStore{
		Base:    base,
		staged:  NewMemoryExpertStore(),
		deleted: make(map[string]bool),
	}
}

func (s *StagingExpertStore) FindByEmail(ctx context.Context, email string) (*models.ExpertDocument, error) {
	return s.find(ctx, func(store ExpertStore) (*models.ExpertDocument, error) {
		return store.FindByEmail(ctx, email)
	})
}

func (s *StagingExpertStore) FindByFullName(ctx context.Context, fullName string) (*models.ExpertDocument, error) {
	return s.find(ctx, func(store ExpertStore) (*models.ExpertDocument, error) {
		return store.FindByFullName(ctx, fullName)
	})
}

func (s *StagingExpertStore) FindByName(ctx context.Context, firstName, lastName string) (*models.ExpertDocument, error) {
	return s.find(ctx, func(store ExpertStore) (*models.ExpertDocument, error) {
		return store.FindByName(ctx, firstName, lastName)
	})
}

// find fragt den Basis-Store zuerst, damit dessen ältere Einträge wie im
// echten Lauf gewinnen. Ein Treffer wird durch die vorgemerkte Fassung
// desselben Dokuments ersetzt.
func (s *StagingExpertStore) find(ctx context.Context, lookup func(ExpertStore) (*models.ExpertDocument, error)) (*models.ExpertDocument, error) {
	doc, err := lookup(s.Base)
	switch {
	case err == nil && !s.isDeleted(doc.ID):
		if staged, err := s.staged.Get(ctx, doc.ID); err == nil {
			return staged, nil
		}
		return doc, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return lookup(s.staged)
}

func (s *StagingExpertStore) Get(ctx context.Context, id string) (*models.ExpertDocument, error) {
	if s.isDeleted(id) {
		return nil, ErrNotFound
	}
	doc, err := s.staged.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return s.Base.Get(ctx, id)
	}
	return doc, err
}

// List liest nur den Basis-Store.
func (s *StagingExpertStore) List(ctx context.Context, q ExpertQuery) ([]models.ExpertDocument, error) {
	return s.Base.List(ctx, q)
}

func (s *StagingExpertStore) Insert(ctx context.Context, doc *models.ExpertDocument) error {
	if _, err := s.Base.Get(ctx, doc.ID); err == nil {
		return ErrDuplicateKey
	}
	return s.staged.Insert(ctx, doc)
}

func (s *StagingExpertStore) Update(ctx context.Context, doc *models.ExpertDocument) error {
	if s.isDeleted(doc.ID) {
		return ErrNotFound
	}
	err := s.staged.Update(ctx, doc)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := s.Base.Get(ctx, doc.ID); err != nil {
		return err
	}
	return s.staged.Insert(ctx, doc)
}

func (s *StagingExpertStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.staged.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	s.mu.Lock()
	s.deleted[id] = true
	s.mu.Unlock()
	return nil
}

func (s *StagingExpertStore) isDeleted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted[id]
}
