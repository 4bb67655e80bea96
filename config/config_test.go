package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "experts")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "experthub")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "4242", cfg.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.ImportRecordTimeout)
	assert.Equal(t, "imports/", cfg.ImportBucketPrefix)
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.EnrichmentEnabled())
	assert.Equal(t, "host=db user=experts password=secret dbname=experthub port=5432 sslmode=disable", cfg.DSN())
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME"} {
		// t.Setenv stellt den ursprünglichen Wert nach dem Test wieder her
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := Load()
	assert.Error(t, err)
}

func TestS3Enabled(t *testing.T) {
	setRequired(t)
	t.Setenv("S3_KEY", "key")
	t.Setenv("S3_SECRET", "secret")
	t.Setenv("S3_URL", "https://s3.example.org")
	t.Setenv("S3_BUCKET", "experts")
	t.Setenv("IMPORT_RECORD_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, 250*time.Millisecond, cfg.ImportRecordTimeout)
}
