package service

import (
	"context"
	"encoding/json"
	"testing"

	"ai-thumbnail-be/internal/pkg/logger"
	"ai-thumbnail-be/internal/pkg/testdb"
	"ai-thumbnail-be/internal/repository/specification"
	"ai-thumbnail-be/internal/repository/unitofwork"
	"ai-thumbnail-be/internal/websocket"
	"ai-thumbnail-be/pkg/ai/analyzer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	chat    IChatService
	factory unitofwork.RepositoryFactory
	hub     *websocket.Hub
	owner   uuid.UUID
	convId  uuid.UUID
	me      *eventRecorder
	other   *eventRecorder
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	log := logger.NewNopLogger()
	factory := unitofwork.NewRepositoryFactory(testdb.New(t))
	hub := websocket.NewHub(nil, log)
	chat := NewChatService(factory, analyzer.HeuristicAnalyzer{}, hub, log)

	owner := uuid.New()
	conversation, err := chat.CreateConversation(context.Background(), owner, "")
	require.NoError(t, err)

	f := &chatFixture{
		chat:    chat,
		factory: factory,
		hub:     hub,
		owner:   owner,
		convId:  conversation.Id,
		me:      &eventRecorder{},
		other:   &eventRecorder{},
	}
	topic := websocket.ConversationTopic(conversation.Id)
	hub.Subscribe(topic, "me", f.me)
	hub.Subscribe(topic, "other", f.other)
	return f
}

func (f *chatFixture) send(t *testing.T, frame map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	f.chat.HandleFrame(context.Background(), f.convId, f.owner, "me", raw)
}

func TestChat_PingAnsweredToSenderOnly(t *testing.T) {
	f := newChatFixture(t)

	f.send(t, map[string]interface{}{"type": "ping", "timestamp": 1700000000})

	got := f.me.events(t)
	require.Len(t, got, 1)
	assert.Equal(t, FramePong, got[0].Type)
	assert.EqualValues(t, 1700000000, got[0].Data["timestamp"])
	assert.Empty(t, f.other.events(t))
}

func TestChat_TypingExcludesSender(t *testing.T) {
	f := newChatFixture(t)

	f.send(t, map[string]interface{}{"type": "typing", "is_typing": true})

	assert.Empty(t, f.me.events(t))
	got := f.other.events(t)
	require.Len(t, got, 1)
	assert.Equal(t, FrameTyping, got[0].Type)
	assert.Equal(t, true, got[0].Data["is_typing"])
}

func TestChat_MessagePersistedAndAnswered(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	f.send(t, map[string]interface{}{"type": "chat", "content": "Gaming video about a new game release"})
	f.chat.Wait()

	assert.Equal(t, []string{FrameMessage, FrameProcessing, FrameMessage, FrameProcessing}, f.other.types(t))

	events := f.other.events(t)
	reply := events[2].Data["message"].(map[string]interface{})
	assert.Equal(t, "assistant", reply["role"])
	assert.Contains(t, reply["content"], `"category":"gaming"`)
	assert.Equal(t, "completed", events[3].Data["status"])

	messages, err := f.factory.NewUnitOfWork(ctx).ConversationRepository().FindMessages(ctx,
		specification.ByConversationID{ConversationID: f.convId},
		specification.OrderBy{Field: "created_at"},
	)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestChat_MalformedFrameGetsErrorReply(t *testing.T) {
	f := newChatFixture(t)

	f.chat.HandleFrame(context.Background(), f.convId, f.owner, "me", []byte("{not json"))

	got := f.me.events(t)
	require.Len(t, got, 1)
	assert.Equal(t, FrameError, got[0].Type)
	assert.Empty(t, f.other.events(t))
}

func TestChat_DisconnectNotifiesOthers(t *testing.T) {
	f := newChatFixture(t)
	f.hub.Unsubscribe(websocket.ConversationTopic(f.convId), "me")

	f.chat.Disconnected(f.convId, f.owner)

	got := f.other.events(t)
	require.Len(t, got, 1)
	assert.Equal(t, FrameUserDisconnected, got[0].Type)
	assert.Equal(t, f.owner.String(), got[0].Data["user_id"])
}

func TestChat_AuthorizeChecksOwnership(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	conversation, err := f.chat.Authorize(ctx, f.owner, f.convId)
	require.NoError(t, err)
	assert.Equal(t, f.convId, conversation.Id)

	_, err = f.chat.Authorize(ctx, uuid.New(), f.convId)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.chat.Authorize(ctx, f.owner, uuid.New())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
