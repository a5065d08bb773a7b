package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Conversation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type ConversationMessage struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserId         *uuid.UUID `gorm:"type:uuid"`
	Role           string     `gorm:"type:varchar(20);not null"`
	Content        string     `gorm:"type:text;not null"`
	Metadata       datatypes.JSON
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// All lists every model owned by this service, in migration order.
func All() []interface{} {
	return []interface{}{
		&Algorithm{},
		&Template{},
		&CreditWallet{},
		&CreditTransaction{},
		&CreditPurchase{},
		&Conversation{},
		&ConversationMessage{},
		&Generation{},
	}
}
