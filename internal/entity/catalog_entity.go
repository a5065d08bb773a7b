package entity

import (
	"time"

	"github.com/google/uuid"
)

type Algorithm struct {
	Id          string
	DisplayName string
	Description string
	CostCredits int
	IsActive    bool
	Parameters  map[string]interface{}
	CreatedAt   time.Time
}

type Template struct {
	Id           uuid.UUID
	Name         string
	Category     string
	Style        string
	Mood         string
	Elements     []string
	Colors       []string
	PrimaryColor string
	PreviewURL   string
	Rating       float64
	UsageCount   int
	IsActive     bool
	CreatedAt    time.Time
}
