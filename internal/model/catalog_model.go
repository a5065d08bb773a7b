package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Algorithm struct {
	Id          string `gorm:"type:varchar(50);primaryKey"`
	DisplayName string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	CostCredits int    `gorm:"not null"`
	IsActive    bool   `gorm:"not null"`
	Parameters  datatypes.JSON
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Algorithm) TableName() string {
	return "algorithms"
}

type Template struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Category     string    `gorm:"type:varchar(100);not null;index"`
	Style        string    `gorm:"type:varchar(100)"`
	Mood         string    `gorm:"type:varchar(100)"`
	Elements     datatypes.JSON
	Colors       datatypes.JSON
	PrimaryColor string    `gorm:"type:varchar(7)"`
	PreviewURL   string    `gorm:"type:text"`
	Rating       float64   `gorm:"not null;default:0"`
	UsageCount   int       `gorm:"not null;default:0"`
	IsActive     bool      `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Template) TableName() string {
	return "templates"
}
