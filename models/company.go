package models

import (
	"time"

	"gorm.io/datatypes"
)

// Company repräsentiert ein KI-Unternehmen. Name und Website sind Pflicht.
type Company struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string `json:"name" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text"`
	Industry    string `json:"industry" gorm:"index"`
	Location    string `json:"location"`
	FoundedYear *int   `json:"foundedYear"`
	Website     string `json:"website" gorm:"not null"`
	Email       string `json:"email"`
	Employees   *int   `json:"employees"`

	Specializations datatypes.JSONSlice[string] `json:"specializations" gorm:"type:jsonb"`
	KeyAchievements datatypes.JSONSlice[string] `json:"keyAchievements" gorm:"type:jsonb"`
	LogoVerified    bool                        `json:"logoVerified" gorm:"default:false"`
}

// TableName gibt explizit den Tabellennamen an.
func (Company) TableName() string {
	return "companies"
}
