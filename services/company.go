package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"expert-hub/models"
)

// ErrCompanyFieldRequired wird geliefert, wenn Name oder Website fehlen.
var ErrCompanyFieldRequired = errors.New("company field required")

// NormalizeCompany baut ein Unternehmen aus einer Formular- oder JSON-Eingabe.
// Listen dürfen als Array oder als kommagetrennter String kommen, Zahlen
// auch als numerischer String.
func NormalizeCompany(fields map[string]any) (*models.Company, error) {
	c := &models.Company{
		Name:            models.StringValue(fields["name"]),
		Description:     models.StringValue(fields["description"]),
		Industry:        models.StringValue(fields["industry"]),
		Location:        models.StringValue(fields["location"]),
		Website:         models.StringValue(fields["website"]),
		Email:           models.StringValue(fields["email"]),
		Specializations: datatypes.JSONSlice[string](listValue(fields["specializations"])),
		KeyAchievements: datatypes.JSONSlice[string](listValue(fields["keyAchievements"])),
	}
	if v, ok := fields["logoVerified"].(bool); ok {
		c.LogoVerified = v
	}

	var err error
	if c.FoundedYear, err = intValue(fields["foundedYear"]); err != nil {
		return nil, fmt.Errorf("foundedYear: %w", err)
	}
	if c.Employees, err = intValue(fields["employees"]); err != nil {
		return nil, fmt.Errorf("employees: %w", err)
	}

	if c.Name == "" {
		return nil, fmt.Errorf("%w: name", ErrCompanyFieldRequired)
	}
	if c.Website == "" {
		return nil, fmt.Errorf("%w: website", ErrCompanyFieldRequired)
	}
	return c, nil
}

// MergeCompany wendet einen Patch per DeepMerge auf ein Unternehmen an.
// ID und createdAt bleiben erhalten; Name und Website dürfen nicht leer werden.
func MergeCompany(existing *models.Company, patch map[string]any, now time.Time) (*models.Company, error) {
	doc, err := toDocument(existing)
	if err != nil {
		return nil, err
	}
	if _, err := DeepMerge(doc, patch); err != nil {
		return nil, err
	}
	merged, err := NormalizeCompany(doc)
	if err != nil {
		return nil, err
	}
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = now
	return merged, nil
}

func listValue(v any) []string {
	switch t := v.(type) {
	case string:
		return SplitList(t)
	case []any:
		return stringList(t)
	case []string:
		return append([]string{}, t...)
	}
	return []string{}
}

func intValue(v any) (*int, error) {
	var n int
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		n = int(t)
	case int:
		n = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
	return &n, nil
}
