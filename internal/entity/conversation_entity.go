package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ConversationMessage struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	UserId         *uuid.UUID
	Role           ChatRole
	Content        string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}
