package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Report struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Subject      string         `gorm:"type:text;not null"`
	Title        string         `gorm:"type:text;not null"`
	Overview     string         `gorm:"type:text"`
	Glossary     datatypes.JSON `gorm:"type:jsonb"`
	Concepts     datatypes.JSON `gorm:"type:jsonb"`
	Formulas     datatypes.JSON `gorm:"type:jsonb"`
	Applications string         `gorm:"type:text"`
	Summary      string         `gorm:"type:text"`
	Recap        string         `gorm:"type:text"`
	Citations    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Report) TableName() string {
	return "reports"
}
