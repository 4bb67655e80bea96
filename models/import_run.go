package models

import "time"

// ImportRun protokolliert das Ergebnis eines Batch-Imports.
type ImportRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Source   string `json:"source" gorm:"index"` // Dateiname, Bucket-Key oder "upload"
	Mode     string `json:"mode"`
	DryRun   bool   `json:"dry_run"`
	Total    int    `json:"total"`
	Added    int    `json:"added"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Duration int64  `json:"duration_ms"`
}

// TableName gibt explizit den Tabellennamen an.
func (ImportRun) TableName() string {
	return "import_runs"
}
