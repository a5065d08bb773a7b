package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/entity"
	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/websocket"
	"ai-thumbnail-be/pkg/ai"

	"github.com/google/uuid"
)

// Frame types exchanged on conversation topics.
const (
	FrameChat             = "chat"
	FrameTyping           = "typing"
	FramePing             = "ping"
	FramePong             = "pong"
	FrameMessage          = "message"
	FrameProcessing       = "processing"
	FrameError            = "error"
	FrameConnection       = "connection"
	FrameUserDisconnected = "user_disconnected"
)

// FrameSender reaches a single client session.
type FrameSender interface {
	SendTo(topic, subscriberID string, evt websocket.Event) error
}

type ChatHub interface {
	EventBroadcaster
	FrameSender
}

type IChatService interface {
	// Authorize loads the conversation and checks that userId owns it.
	Authorize(ctx context.Context, userId, conversationId uuid.UUID) (*entity.Conversation, error)
	CreateConversation(ctx context.Context, userId uuid.UUID, title string) (*entity.Conversation, error)
	// HandleFrame processes one inbound frame from subscriberID on the conversation topic.
	HandleFrame(ctx context.Context, conversationId, userId uuid.UUID, subscriberID string, raw []byte)
	// Disconnected tells the remaining observers that userId left.
	Disconnected(conversationId, userId uuid.UUID)
	// Wait blocks until in-flight assistant replies have finished.
	Wait()
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	analyzer   ai.Analyzer
	hub        ChatHub
	logger     logger.ILogger
	replies    chan struct{}
	inflight   sync.WaitGroup
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, analyzer ai.Analyzer, hub ChatHub, log logger.ILogger) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		analyzer:   analyzer,
		hub:        hub,
		logger:     log,
		replies:    make(chan struct{}, 16),
	}
}

func (s *chatService) Authorize(ctx context.Context, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	if conversation.UserId != userId {
		return nil, ErrForbidden
	}
	return conversation, nil
}

func (s *chatService) CreateConversation(ctx context.Context, userId uuid.UUID, title string) (*entity.Conversation, error) {
	if title == "" {
		title = "New conversation"
	}
	conversation := &entity.Conversation{Id: uuid.New(), UserId: userId, Title: title}
	if err := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *chatService) HandleFrame(ctx context.Context, conversationId, userId uuid.UUID, subscriberID string, raw []byte) {
	topic := websocket.ConversationTopic(conversationId)

	var frame dto.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.reply(topic, subscriberID, websocket.NewEvent(FrameError, map[string]interface{}{
			"message": "Invalid message format",
		}))
		return
	}

	switch frame.Type {
	case FrameChat:
		s.handleChat(ctx, conversationId, userId, frame)
	case FrameTyping:
		s.hub.Broadcast(topic, websocket.NewEvent(FrameTyping, map[string]interface{}{
			"user_id":   userId,
			"is_typing": frame.IsTyping,
		}), subscriberID)
	case FramePing:
		s.reply(topic, subscriberID, websocket.NewEvent(FramePong, map[string]interface{}{
			"timestamp": frame.Timestamp,
		}))
	default:
		s.logger.Debug("Chat", "Ignoring unknown frame type", map[string]interface{}{"type": frame.Type})
	}
}

func (s *chatService) handleChat(ctx context.Context, conversationId, userId uuid.UUID, frame dto.InboundFrame) {
	topic := websocket.ConversationTopic(conversationId)
	if frame.Content == "" {
		return
	}

	message := &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		UserId:         &userId,
		Role:           entity.ChatRoleUser,
		Content:        frame.Content,
		Metadata:       frame.Metadata,
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().CreateMessage(ctx, message); err != nil {
		s.logger.Error("Chat", "Failed to persist user message", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
		s.hub.Broadcast(topic, websocket.NewEvent(FrameError, map[string]interface{}{
			"message": "Failed to save message",
		}), "")
		return
	}

	s.hub.Broadcast(topic, websocket.NewEvent(FrameMessage, map[string]interface{}{
		"message": messagePayload(message),
	}), "")

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.replies <- struct{}{}
		defer func() { <-s.replies }()
		s.assistantReply(context.WithoutCancel(ctx), conversationId, message)
	}()
}

func (s *chatService) assistantReply(ctx context.Context, conversationId uuid.UUID, prompt *entity.ConversationMessage) {
	topic := websocket.ConversationTopic(conversationId)

	s.hub.Broadcast(topic, websocket.NewEvent(FrameProcessing, map[string]interface{}{
		"status":  "analyzing",
		"message": "Analyzing your request...",
	}), "")

	analysis := s.analyzer.Analyze(ctx, prompt.Content, nil)
	content, err := json.Marshal(analysis)
	if err == nil {
		reply := &entity.ConversationMessage{
			Id:             uuid.New(),
			ConversationId: conversationId,
			Role:           entity.ChatRoleAssistant,
			Content:        string(content),
			Metadata:       map[string]interface{}{"analysis": true, "type": "prompt_analysis", "reply_to": prompt.Id.String()},
		}
		err = s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().CreateMessage(ctx, reply)
		if err == nil {
			s.hub.Broadcast(topic, websocket.NewEvent(FrameMessage, map[string]interface{}{
				"message": messagePayload(reply),
			}), "")
			s.hub.Broadcast(topic, websocket.NewEvent(FrameProcessing, map[string]interface{}{
				"status":  "completed",
				"message": "Analysis complete",
			}), "")
			return
		}
	}

	s.logger.Error("Chat", "Failed to produce assistant reply", map[string]interface{}{
		"conversation_id": conversationId,
		"error":           err.Error(),
	})
	s.hub.Broadcast(topic, websocket.NewEvent(FrameError, map[string]interface{}{
		"message": "Failed to process message. Please try again.",
		"error":   err.Error(),
	}), "")
}

func (s *chatService) Disconnected(conversationId, userId uuid.UUID) {
	s.hub.Broadcast(websocket.ConversationTopic(conversationId), websocket.NewEvent(FrameUserDisconnected, map[string]interface{}{
		"user_id": userId,
	}), "")
}

func (s *chatService) Wait() {
	s.inflight.Wait()
}

func (s *chatService) reply(topic, subscriberID string, evt websocket.Event) {
	if err := s.hub.SendTo(topic, subscriberID, evt); err != nil {
		s.logger.Debug("Chat", "Direct reply not delivered", map[string]interface{}{
			"subscriber_id": subscriberID,
			"error":         err.Error(),
		})
	}
}

func messagePayload(m *entity.ConversationMessage) dto.ChatMessageResponse {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return dto.ChatMessageResponse{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      createdAt.Format(time.RFC3339),
	}
}
