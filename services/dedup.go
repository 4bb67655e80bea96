package services

import (
	"context"
	"errors"
	"strings"

	"expert-hub/models"
	"expert-hub/storage"
)

// ExpertFinder sind die Leseoperationen, die die Duplikatsuche braucht.
type ExpertFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.ExpertDocument, error)
	FindByFullName(ctx context.Context, fullName string) (*models.ExpertDocument, error)
	FindByName(ctx context.Context, firstName, lastName string) (*models.ExpertDocument, error)
}

// FindExisting sucht einen gespeicherten Datensatz, der dieselbe Person
// beschreibt: zuerst per E-Mail, dann per vollem Namen, dann per Vor- und
// Nachname. Der erste Treffer gewinnt; nil bedeutet "nicht gefunden".
// Bei mehreren gleichnamigen Einträgen entscheidet die Reihenfolge des Stores.
func FindExisting(ctx context.Context, finder ExpertFinder, candidate *models.Expert) (*models.ExpertDocument, error) {
	info := candidate.PersonalInfo

	if email := strings.TrimSpace(info.Email); email != "" {
		doc, err := finder.FindByEmail(ctx, email)
		if hit, err := found(doc, err); hit || err != nil {
			return doc, err
		}
	}
	if fullName := strings.TrimSpace(info.FullName); fullName != "" {
		doc, err := finder.FindByFullName(ctx, fullName)
		if hit, err := found(doc, err); hit || err != nil {
			return doc, err
		}
	}
	first, last := strings.TrimSpace(info.FirstName), strings.TrimSpace(info.LastName)
	if first != "" && last != "" {
		doc, err := finder.FindByName(ctx, first, last)
		if hit, err := found(doc, err); hit || err != nil {
			return doc, err
		}
	}
	return nil, nil
}

func found(doc *models.ExpertDocument, err error) (bool, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}
