package specification

import (
	"ai-thumbnail-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByStatuses struct {
	Statuses []entity.GenerationStatus
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", statusStrings(s.Statuses))
}

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

func statusStrings(statuses []entity.GenerationStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
