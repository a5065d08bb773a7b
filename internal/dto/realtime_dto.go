package dto

import "github.com/google/uuid"

// InboundFrame is any client-to-server websocket frame.
type InboundFrame struct {
	Type      string                 `json:"type"`
	Content   string                 `json:"content,omitempty"`
	IsTyping  bool                   `json:"is_typing,omitempty"`
	Timestamp interface{}            `json:"timestamp,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ChatMessageResponse struct {
	Id             uuid.UUID `json:"id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      string    `json:"created_at"`
}

type CreateConversationRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

type ConversationResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt string    `json:"created_at"`
}
