package jsonfile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"expert-hub/models"
)

func TestReadMixedArray(t *testing.T) {
	data := `[
		{"personalInfo": {"firstName": "Jane"}},
		{"Vorname": "Max", "Nachname": "Mustermann"},
		{"name": "Erika Musterfrau"},
		42,
		{"foo": "bar"}
	]`
	records, err := New("legacy.json", []byte(data), zap.NewNop()).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, models.SourceCanonical, records[0].Source)
	assert.Equal(t, models.SourceGermanCSV, records[1].Source)
	assert.Equal(t, models.SourceForm, records[2].Source)
	assert.Equal(t, models.SourceAuto, records[3].Source)
	assert.Nil(t, records[3].Fields)
	assert.Equal(t, models.SourceUnknown, records[4].Source)
	assert.Equal(t, "legacy.json[3]", records[3].Origin)
}

func TestReadSingleObject(t *testing.T) {
	records, err := New("one.json", []byte(` {"name": "Jane Smith"} `), zap.NewNop()).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.SourceForm, records[0].Source)
}

func TestReadInvalid(t *testing.T) {
	_, err := New("bad.json", []byte(`[{"name": `), zap.NewNop()).Read(context.Background())
	assert.Error(t, err)

	records, err := New("empty.json", nil, zap.NewNop()).Read(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, records)
}
