package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
	"chat-relay/wire"
)

func newTestServer(t *testing.T, publisher contract.Publisher) (*httptest.Server, *runtime.Hub) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := repositories.NewBadgerStateStore(db)
	chat := services.NewChatService(slog.Default(),
		repositories.NewHistoryRepository(store, 50), publisher, "chat.messages")
	presence := services.NewPresenceService(slog.Default(),
		repositories.NewPresenceRepository(store, 0))
	hub := runtime.NewHub(slog.Default())

	ts := httptest.NewServer(NewServer(slog.Default(), chat, presence, hub, 16).Routes())
	t.Cleanup(ts.Close)
	return ts, hub
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func Test_Join_Send_History_Flow(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisherMock := mocks.NewMockPublisher(ctrl)
	publisherMock.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	ts, _ := newTestServer(t, publisherMock)

	// Join
	resp := postJSON(t, ts.URL+"/api/users/join", JoinRequest{DisplayName: "Alice"})
	req.Equal(http.StatusOK, resp.StatusCode)
	joined := decodeBody[JoinResponse](t, resp)
	req.NotEqual(uuid.Nil, joined.ID)
	req.Equal("Alice", joined.DisplayName)

	// History starts empty
	resp2, err := http.Get(ts.URL + "/api/chat/history")
	req.NoError(err)
	defer resp2.Body.Close()
	req.Equal(http.StatusOK, resp2.StatusCode)
	req.Empty(decodeBody[[]wire.Message](t, resp2))

	// Send
	resp3 := postJSON(t, ts.URL+"/api/chat/send", SendMessageRequest{
		SenderID:   joined.ID,
		SenderName: joined.DisplayName,
		Body:       "hello room",
	})
	req.Equal(http.StatusOK, resp3.StatusCode)
	sent := decodeBody[wire.Message](t, resp3)
	req.Equal(joined.ID, sent.SenderID)
	req.Equal("hello room", sent.Body)

	// The sent message shows up in history
	resp4, err := http.Get(ts.URL + "/api/chat/history")
	req.NoError(err)
	defer resp4.Body.Close()
	history := decodeBody[[]wire.Message](t, resp4)
	req.Len(history, 1)
	req.Equal(sent.ID, history[0].ID)

	// Presence endpoints see the joined user
	resp5, err := http.Get(ts.URL + "/api/users/" + joined.ID.String())
	req.NoError(err)
	defer resp5.Body.Close()
	req.Equal(http.StatusOK, resp5.StatusCode)
	req.Equal("Alice", decodeBody[wire.User](t, resp5).DisplayName)

	resp6 := postJSON(t, ts.URL+"/api/users/"+joined.ID.String()+"/ping", nil)
	req.Equal(http.StatusOK, resp6.StatusCode)
}

func Test_Join_RejectsEmptyDisplayName(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, _ := newTestServer(t, mocks.NewMockPublisher(ctrl))

	resp := postJSON(t, ts.URL+"/api/users/join", JoinRequest{DisplayName: ""})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_GetUser_UnknownAndInvalidIDs(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, _ := newTestServer(t, mocks.NewMockPublisher(ctrl))

	resp, err := http.Get(ts.URL + "/api/users/" + uuid.NewString())
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/users/not-a-uuid")
	req.NoError(err)
	defer resp2.Body.Close()
	req.Equal(http.StatusBadRequest, resp2.StatusCode)
}

func Test_Send_RejectsInvalidRequests(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Publish expectation: rejected sends never reach the broker
	ts, _ := newTestServer(t, mocks.NewMockPublisher(ctrl))

	resp := postJSON(t, ts.URL+"/api/chat/send", SendMessageRequest{
		SenderID:   uuid.New(),
		SenderName: "Alice",
		Body:       "",
	})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp2 := postJSON(t, ts.URL+"/api/chat/send", SendMessageRequest{
		SenderName: "Alice",
		Body:       "hello",
	})
	req.Equal(http.StatusBadRequest, resp2.StatusCode)
}

func dialSocket(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForStat(t *testing.T, hub *runtime.Hub, key string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Stats()[key] == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Fail(t, fmt.Sprintf("hub never reached %s=%d", key, want))
}

func Test_Socket_DeliversBroadcastEvents(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, hub := newTestServer(t, mocks.NewMockPublisher(ctrl))

	conn := dialSocket(t, ts)
	req.NoError(conn.WriteJSON(helloFrame{UserID: uuid.New()}))
	waitForStat(t, hub, "joined", 1)

	e := event.MessageSent{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		SenderName: "Alice",
		Body:       "hello room",
		At:         time.Now().UTC(),
	}
	hub.Broadcast(context.Background(), e)

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var received wire.Message
	req.NoError(conn.ReadJSON(&received))
	req.Equal(e.ID, received.ID)
	req.Equal("hello room", received.Body)
}

func Test_Socket_WithoutValidHelloNeverJoins(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, hub := newTestServer(t, mocks.NewMockPublisher(ctrl))

	conn := dialSocket(t, ts)
	req.NoError(conn.WriteJSON(helloFrame{UserID: uuid.Nil}))

	// The server closes the socket and drops the connection
	waitForStat(t, hub, "connections", 0)

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
}

func Test_Socket_DisconnectRemovesConnection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ts, hub := newTestServer(t, mocks.NewMockPublisher(ctrl))

	conn := dialSocket(t, ts)
	req.NoError(conn.WriteJSON(helloFrame{UserID: uuid.New()}))
	waitForStat(t, hub, "joined", 1)

	req.NoError(conn.Close())
	waitForStat(t, hub, "connections", 0)
}
