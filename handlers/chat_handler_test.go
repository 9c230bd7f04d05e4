package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telescordAPI/internal/store/memory"
	"telescordAPI/internal/types/message"
	"telescordAPI/internal/user"
	"telescordAPI/middleware"
	"telescordAPI/services"
)

type chatTestEnv struct {
	server  *httptest.Server
	handler *ChatHandler
	users   *services.UserService
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	mem := memory.New()
	userService := services.NewUserService(mem)
	hub := services.NewHub()
	router := services.NewDeliveryRouter(hub, services.NewMessageService(mem), nil)
	handler := NewChatHandler(hub, router, userService)

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/chat/ws", handler.ServeWS)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &chatTestEnv{server: server, handler: handler, users: userService}
}

func (env *chatTestEnv) register(t *testing.T, username string) *user.User {
	t.Helper()
	u, err := env.users.Register(context.Background(), &user.RegisterRequest{
		Username: username,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return u
}

func (env *chatTestEnv) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := middleware.GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/chat/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

// TestDirectMessageOverWebsocket drives two live connections end to end
func TestDirectMessageOverWebsocket(t *testing.T) {
	env := newChatTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	aliceConn := env.dial(t, alice.ID)
	bobConn := env.dial(t, bob.ID)

	t.Log("Step 1: alice sends bob a dm_message frame")
	frame := fmt.Sprintf(`{"action": "dm_message", "receiverId": %q, "body": "hello bob"}`, bob.ID)
	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte(frame)))

	t.Log("Step 2: bob receives it live")
	event := readEvent(t, bobConn)
	require.Equal(t, "dm_message", event["type"])
	msg := event["message"].(map[string]any)
	assert.Equal(t, alice.ID, msg["senderId"])
	assert.Equal(t, "hello bob", msg["body"])
	assert.NotEmpty(t, msg["id"])

	t.Log("Step 3: alice receives the echo with the same server id")
	echo := readEvent(t, aliceConn)
	require.Equal(t, "dm_message", echo["type"])
	echoMsg := echo["message"].(map[string]any)
	assert.Equal(t, msg["id"], echoMsg["id"])

	t.Log("Step 4: the message is in durable history")
	rr := httptest.NewRecorder()
	env.handler.GetHistory(rr, authedRequest(http.MethodGet, "/api/v1/chat/history?recipientId="+alice.ID, "", bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	var history []*message.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hello bob", history[0].Body)
}

func TestWebsocketErrorFrames(t *testing.T) {
	env := newChatTestEnv(t)
	alice := env.register(t, "alice")
	aliceConn := env.dial(t, alice.ID)

	t.Log("Malformed frame")
	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte("not json")))
	event := readEvent(t, aliceConn)
	assert.Equal(t, "error", event["type"])

	t.Log("Unknown action")
	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte(`{"action": "teleport"}`)))
	event = readEvent(t, aliceConn)
	assert.Equal(t, "error", event["type"])

	t.Log("Message to self")
	frame := fmt.Sprintf(`{"action": "dm_message", "receiverId": %q, "body": "hi me"}`, alice.ID)
	require.NoError(t, aliceConn.WriteMessage(websocket.TextMessage, []byte(frame)))
	event = readEvent(t, aliceConn)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, "INVALID_ARGUMENT", event["code"])
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	env := newChatTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/chat/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetHistoryRequiresRecipient(t *testing.T) {
	env := newChatTestEnv(t)
	alice := env.register(t, "alice")

	rr := httptest.NewRecorder()
	env.handler.GetHistory(rr, authedRequest(http.MethodGet, "/api/v1/chat/history", "", alice.ID))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
