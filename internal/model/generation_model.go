package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Generation struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	ConversationId  *uuid.UUID `gorm:"type:uuid;index"`
	AlgorithmId     string     `gorm:"type:varchar(50);not null;index"`
	Prompt          string     `gorm:"type:text;not null"`
	ReferenceInputs datatypes.JSON
	Parameters      datatypes.JSON
	Status          string  `gorm:"type:varchar(20);not null;index"`
	Progress        int     `gorm:"not null;default:0"`
	ErrorMessage    *string `gorm:"type:text"`
	ResultURL       *string `gorm:"type:text"`
	ResultMetadata  datatypes.JSON
	CreditsUsed     int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

func (Generation) TableName() string {
	return "generations"
}
