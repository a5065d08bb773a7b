package contract

import (
	"context"

	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/repository/specification"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	CreateMessage(ctx context.Context, message *entity.ConversationMessage) error
	FindMessages(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error)
}
