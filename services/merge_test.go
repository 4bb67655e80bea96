package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expert-hub/models"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name   string
		target map[string]any
		source map[string]any
		want   map[string]any
	}{
		{
			name:   "preserves untouched siblings",
			target: map[string]any{"a": map[string]any{"x": 1, "y": 2}},
			source: map[string]any{"a": map[string]any{"x": 9}},
			want:   map[string]any{"a": map[string]any{"x": 9, "y": 2}},
		},
		{
			name:   "replaces arrays wholesale",
			target: map[string]any{"tags": []any{"a", "b"}},
			source: map[string]any{"tags": []any{"c"}},
			want:   map[string]any{"tags": []any{"c"}},
		},
		{
			name:   "null overwrites",
			target: map[string]any{"title": "Dr."},
			source: map[string]any{"title": nil},
			want:   map[string]any{"title": nil},
		},
		{
			name:   "absent keys are kept",
			target: map[string]any{"a": 1, "b": 2},
			source: map[string]any{"b": 3},
			want:   map[string]any{"a": 1, "b": 3},
		},
		{
			name:   "scalar target becomes object",
			target: map[string]any{"a": "flat"},
			source: map[string]any{"a": map[string]any{"x": 1}},
			want:   map[string]any{"a": map[string]any{"x": 1}},
		},
		{
			name:   "nil target",
			target: nil,
			source: map[string]any{"a": map[string]any{"b": map[string]any{"c": true}}},
			want:   map[string]any{"a": map[string]any{"b": map[string]any{"c": true}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeepMerge(tt.target, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeepMergeMutatesTarget(t *testing.T) {
	target := map[string]any{"a": 1}
	got, err := DeepMerge(target, map[string]any{"b": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, target["b"])
	assert.Equal(t, target, got)
}

func TestDeepMergeDepthLimit(t *testing.T) {
	t.Run("deep source", func(t *testing.T) {
		source := map[string]any{}
		cur := source
		for i := 0; i < MaxMergeDepth+5; i++ {
			next := map[string]any{}
			cur["n"] = next
			cur = next
		}
		_, err := DeepMerge(map[string]any{}, source)
		assert.ErrorIs(t, err, ErrMergeTooDeep)
	})
	t.Run("cyclic source", func(t *testing.T) {
		cyclic := map[string]any{}
		cyclic["self"] = cyclic
		_, err := DeepMerge(map[string]any{}, cyclic)
		assert.ErrorIs(t, err, ErrMergeTooDeep)
	})
}

func TestMergeExpert(t *testing.T) {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(48 * time.Hour)

	e := models.NewExpertTemplateAt(created)
	e.ID = "exp-jane-smith"
	e.PersonalInfo.FirstName = "Jane"
	e.PersonalInfo.Email = "jane@example.com"
	e.Tags = []string{"a", "b"}

	merged, err := MergeExpert(e, map[string]any{
		"id":           "exp-other",
		"bio":          "Forscht zu NLP.",
		"personalInfo": map[string]any{"lastName": "Smith"},
		"tags":         []any{"c"},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "exp-jane-smith", merged.ID)
	assert.Equal(t, created, merged.CreatedAt)
	assert.Equal(t, now, merged.UpdatedAt)
	assert.Equal(t, "Forscht zu NLP.", merged.Bio)
	assert.Equal(t, "Jane", merged.PersonalInfo.FirstName)
	assert.Equal(t, "Smith", merged.PersonalInfo.LastName)
	assert.Equal(t, "jane@example.com", merged.PersonalInfo.Email)
	assert.Equal(t, []string{"c"}, merged.Tags)

	// Eingabe bleibt unverändert
	assert.Equal(t, []string{"a", "b"}, e.Tags)
}

func TestMergeExpertRejectsWrongTypes(t *testing.T) {
	_, err := MergeExpert(models.NewExpertTemplate(), map[string]any{"tags": "not-a-list"}, time.Now())
	assert.Error(t, err)
}

func TestSparsePatch(t *testing.T) {
	e := models.NewExpertTemplate()
	e.ID = "exp-jane-smith"
	e.PersonalInfo.FirstName = "Jane"
	e.Institution.Name = "Acme"
	e.Tags = []string{"AI"}

	patch, err := SparsePatch(e)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"personalInfo": map[string]any{
			"firstName": "Jane",
			"languages": []any{"Deutsch", "Englisch"},
		},
		"institution": map[string]any{"name": "Acme"},
		"tags":        []any{"AI"},
	}, patch)
}
