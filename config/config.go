package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Import-Verhalten
	ImportMergeExisting bool          `envconfig:"IMPORT_MERGE_EXISTING" default:"false"`
	ImportRecordTimeout time.Duration `envconfig:"IMPORT_RECORD_TIMEOUT" default:"10s"`
	ImportMaxUploadMB   int64         `envconfig:"IMPORT_MAX_UPLOAD_MB" default:"20"`

	// Geplanter Import aus dem Bucket (leer = deaktiviert)
	CronSchedule       string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
	ImportBucketPrefix string `envconfig:"IMPORT_BUCKET_PREFIX" default:"imports/"`

	// S3-kompatibler Speicher für Importdateien und Exporte (optional)
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	ExportPrefix string `envconfig:"EXPORT_PREFIX" default:"exports/"`
	KeepExports  int    `envconfig:"KEEP_EXPORTS" default:"4"`

	// Generative KI für die Profil-Anreicherung (leer = deaktiviert)
	GenAIAPIKey string `envconfig:"GENAI_API_KEY"`
	GenAIModel  string `envconfig:"GENAI_MODEL" default:"gemini-2.5-flash"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob alle Angaben für den Bucket-Zugriff vorhanden sind.
func (c *Config) S3Enabled() bool {
	return c.S3Key != "" && c.S3Secret != "" && c.S3URL != "" && c.S3Bucket != ""
}

// EnrichmentEnabled meldet, ob ein API-Key für die KI-Anreicherung gesetzt ist.
func (c *Config) EnrichmentEnabled() bool {
	return c.GenAIAPIKey != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
