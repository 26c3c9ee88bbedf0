package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/wire"
)

const testSubject = "chat.messages"

func newStoreBackedChatService(t *testing.T, publisher contract.Publisher) *ChatService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	history := repositories.NewHistoryRepository(repositories.NewBadgerStateStore(db), 50)
	return NewChatService(slog.Default(), history, publisher, testSubject)
}

func TestChatService_SendMessage_AppendsAndPublishes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var published wire.Message
	publisherMock := mocks.NewMockPublisher(ctrl)
	publisherMock.EXPECT().
		Publish(gomock.Any(), testSubject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) error {
			return json.Unmarshal(payload, &published)
		}).
		Times(1)

	service := newStoreBackedChatService(t, publisherMock)
	ctx := context.Background()
	sender := uuid.New()

	before := time.Now().UTC()
	message, err := service.SendMessage(ctx, sender, "Alice", "hello room")
	req.NoError(err)
	req.NotNil(message)
	req.NotEqual(uuid.Nil, message.ID)
	req.Equal(sender, message.SenderID)
	req.Equal("Alice", message.SenderName)
	req.Equal("hello room", message.Body)
	req.False(message.SentAt.Before(before))

	// The published payload carries the exact persisted message
	req.Equal(wire.FromMessage(*message), published)

	history, err := service.GetHistory(ctx)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(*message, history[0])
}

func TestChatService_SendMessage_RejectsInvalidInput(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Publish expectation: rejected messages never reach the broker
	service := newStoreBackedChatService(t, mocks.NewMockPublisher(ctrl))
	ctx := context.Background()

	_, err := service.SendMessage(ctx, uuid.Nil, "Alice", "hello")
	req.ErrorIs(err, errors.ErrNilSenderID)

	_, err = service.SendMessage(ctx, uuid.New(), "Alice", "")
	req.ErrorIs(err, errors.ErrEmptyMessageBody)

	history, err := service.GetHistory(ctx)
	req.NoError(err)
	req.Empty(history)
}

func TestChatService_WindowKeepsLastFifty(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisherMock := mocks.NewMockPublisher(ctrl)
	publisherMock.EXPECT().
		Publish(gomock.Any(), testSubject, gomock.Any()).
		Return(nil).
		AnyTimes()

	service := newStoreBackedChatService(t, publisherMock)
	ctx := context.Background()
	sender := uuid.New()

	for i := 0; i < 51; i++ {
		_, err := service.SendMessage(ctx, sender, "Alice", fmt.Sprintf("message %d", i))
		req.NoError(err)
	}

	history, err := service.GetHistory(ctx)
	req.NoError(err)
	req.Len(history, 50)
	req.Equal("message 1", history[0].Body)
	req.Equal("message 50", history[49].Body)
}

func TestChatService_PublishFailureIsSurfaced(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisherMock := mocks.NewMockPublisher(ctrl)
	publisherMock.EXPECT().
		Publish(gomock.Any(), testSubject, gomock.Any()).
		Return(fmt.Errorf("broker unreachable")).
		Times(1)

	service := newStoreBackedChatService(t, publisherMock)
	ctx := context.Background()

	message, err := service.SendMessage(ctx, uuid.New(), "Alice", "hello")
	req.Error(err)
	req.Nil(message)

	// The append happened before the publish: the message stays in the
	// window and clients recover it from history
	history, err := service.GetHistory(ctx)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("hello", history[0].Body)
}

func TestChatService_StoreFailureIsSurfaced(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storeMock := mocks.NewMockStateStore(ctrl)
	storeMock.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(nil, false, fmt.Errorf("disk on fire")).
		AnyTimes()

	history := repositories.NewHistoryRepository(storeMock, 50)
	service := NewChatService(slog.Default(), history, mocks.NewMockPublisher(ctrl), testSubject)
	ctx := context.Background()

	_, err := service.SendMessage(ctx, uuid.New(), "Alice", "hello")
	req.Error(err)

	_, err = service.GetHistory(ctx)
	req.Error(err)
}
