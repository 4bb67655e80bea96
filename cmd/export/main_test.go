package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expert-hub/models"
)

func TestExportKey(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "exports/experts-2024-03-15T10-30-00Z.json.gz", exportKey("exports/", now))
	assert.Equal(t, "exports/experts-2024-03-15T10-30-00Z.json.gz", exportKey("exports", now))
	assert.Equal(t, "experts-2024-03-15T10-30-00Z.json.gz", exportKey("", now))
}

func TestExportsToDelete(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var objects []types.Object
	for i := 0; i < 6; i++ {
		objects = append(objects, types.Object{
			Key:          aws.String(exportKey("exports/", base.AddDate(0, 0, i))),
			LastModified: aws.Time(base.AddDate(0, 0, i)),
		})
	}

	old := exportsToDelete(objects, 4)
	require.Len(t, old, 2)
	assert.Equal(t, base.AddDate(0, 0, 1), aws.ToTime(old[0].LastModified))
	assert.Equal(t, base, aws.ToTime(old[1].LastModified))

	assert.Nil(t, exportsToDelete(objects[:3], 4))
}

func TestCreateExport(t *testing.T) {
	e := models.NewExpertTemplate()
	e.ID = "exp-jane-smith"
	doc, err := models.NewExpertDocument("0b8f3f8e-8a43-4c9a-a8a4-5f7a2ef3b6c1", models.SourceForm, e)
	require.NoError(t, err)

	data, err := createExport([]models.ExpertDocument{*doc})
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var experts []map[string]any
	require.NoError(t, json.Unmarshal(raw, &experts))
	require.Len(t, experts, 1)
	assert.Equal(t, doc.ID, experts[0]["_id"])
	assert.Equal(t, "exp-jane-smith", experts[0]["id"])
}
