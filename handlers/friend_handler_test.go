package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telescordAPI/internal/store/memory"
	"telescordAPI/internal/user"
	"telescordAPI/services"
)

type friendTestEnv struct {
	handler *FriendHandler
	hub     *services.Hub
	users   *services.UserService
}

func newFriendTestEnv(t *testing.T) *friendTestEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	mem := memory.New()
	userService := services.NewUserService(mem)
	relationshipService := services.NewRelationshipService(mem, mem)
	notificationService := services.NewNotificationService(mem, mem)
	t.Cleanup(notificationService.Stop)

	hub := services.NewHub()
	router := services.NewDeliveryRouter(hub, services.NewMessageService(mem), notificationService)

	return &friendTestEnv{
		handler: NewFriendHandler(userService, relationshipService, router, notificationService),
		hub:     hub,
		users:   userService,
	}
}

func (env *friendTestEnv) register(t *testing.T, username string) *user.User {
	t.Helper()
	u, err := env.users.Register(context.Background(), &user.RegisterRequest{
		Username: username,
		Password: "supersecret",
	})
	require.NoError(t, err)
	return u
}

// TestFriendRequestOverHTTP walks the request/accept flow end to end
func TestFriendRequestOverHTTP(t *testing.T) {
	env := newFriendTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	// Bob is online and should see live friend_update events.
	bobClient := services.NewClient(env.hub, nil, bob.ID, bob.Username)
	env.hub.Register(bobClient)

	t.Log("Step 1: alice sends a request by username")
	body := `{"targetUsername": "bob"}`
	rr1 := httptest.NewRecorder()
	env.handler.SendFriendRequest(rr1, authedRequest(http.MethodPost, "/api/v1/friends/request", body, alice.ID))
	require.Equal(t, http.StatusOK, rr1.Code, rr1.Body.String())

	t.Log("Step 2: bob got a live friend_update")
	var event map[string]any
	require.NoError(t, json.Unmarshal(<-bobClient.Send, &event))
	assert.Equal(t, "friend_update", event["type"])
	assert.Equal(t, alice.ID, event["userId"])

	t.Log("Step 3: bob sees the pending request")
	rr2 := httptest.NewRecorder()
	env.handler.GetFriendRequests(rr2, authedRequest(http.MethodGet, "/api/v1/friends/requests", "", bob.ID))
	require.Equal(t, http.StatusOK, rr2.Code)

	var requests struct {
		Received []user.Card `json:"received"`
		Sent     []user.Card `json:"sent"`
	}
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &requests))
	require.Len(t, requests.Received, 1)
	assert.Equal(t, "alice", requests.Received[0].Username)
	assert.Empty(t, requests.Sent)

	t.Log("Step 4: bob accepts")
	acceptBody := fmt.Sprintf(`{"senderId": %q}`, alice.ID)
	rr3 := httptest.NewRecorder()
	env.handler.AcceptFriendRequest(rr3, authedRequest(http.MethodPost, "/api/v1/friends/accept", acceptBody, bob.ID))
	require.Equal(t, http.StatusOK, rr3.Code, rr3.Body.String())

	var acceptResp struct {
		NewFriend user.Card `json:"newFriend"`
	}
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &acceptResp))
	assert.Equal(t, "alice", acceptResp.NewFriend.Username)

	t.Log("Step 5: both sides list each other")
	for _, pair := range [][2]string{{alice.ID, "bob"}, {bob.ID, "alice"}} {
		rr := httptest.NewRecorder()
		env.handler.GetFriends(rr, authedRequest(http.MethodGet, "/api/v1/friends", "", pair[0]))
		require.Equal(t, http.StatusOK, rr.Code)

		var friends []user.Card
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &friends))
		require.Len(t, friends, 1)
		assert.Equal(t, pair[1], friends[0].Username)
	}
}

func TestSendFriendRequestErrors(t *testing.T) {
	env := newFriendTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")

	t.Log("Unknown username is a 404")
	rr := httptest.NewRecorder()
	env.handler.SendFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/request", `{"targetUsername": "ghost"}`, alice.ID))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	t.Log("Self-target is a 400")
	rr = httptest.NewRecorder()
	env.handler.SendFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/request", `{"targetUsername": "alice"}`, alice.ID))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	t.Log("Duplicate request is a 409")
	rr = httptest.NewRecorder()
	env.handler.SendFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/request", `{"targetUsername": "bob"}`, alice.ID))
	require.Equal(t, http.StatusOK, rr.Code)
	rr = httptest.NewRecorder()
	env.handler.SendFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/request", `{"targetUsername": "bob"}`, alice.ID))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRejectAndRemoveOverHTTP(t *testing.T) {
	env := newFriendTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	send := func() {
		rr := httptest.NewRecorder()
		env.handler.SendFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/request", `{"targetUsername": "bob"}`, alice.ID))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	t.Log("Reject tears the request down")
	send()
	rejectBody := fmt.Sprintf(`{"senderId": %q}`, alice.ID)
	rr := httptest.NewRecorder()
	env.handler.RejectFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/reject", rejectBody, bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	t.Log("After reject the same request can be sent again and accepted")
	send()
	acceptBody := fmt.Sprintf(`{"senderId": %q}`, alice.ID)
	rr = httptest.NewRecorder()
	env.handler.AcceptFriendRequest(rr, authedRequest(http.MethodPost, "/api/v1/friends/accept", acceptBody, bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	t.Log("Remove dissolves the friendship for both sides")
	removeBody := fmt.Sprintf(`{"friendId": %q}`, bob.ID)
	rr = httptest.NewRecorder()
	env.handler.RemoveFriend(rr, authedRequest(http.MethodDelete, "/api/v1/friends", removeBody, alice.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	env.handler.GetFriends(rr, authedRequest(http.MethodGet, "/api/v1/friends", "", bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)
	var friends []user.Card
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &friends))
	assert.Empty(t, friends)

	t.Log("Removing again is a 409")
	rr = httptest.NewRecorder()
	env.handler.RemoveFriend(rr, authedRequest(http.MethodDelete, "/api/v1/friends", removeBody, alice.ID))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSearchUsersOverHTTP(t *testing.T) {
	env := newFriendTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "alicia")
	env.register(t, "bob")

	rr := httptest.NewRecorder()
	env.handler.SearchUsers(rr, authedRequest(http.MethodGet, "/api/v1/user/search?q=ali", "", alice.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	var cards []user.Card
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "alicia", cards[0].Username)

	rr = httptest.NewRecorder()
	env.handler.SearchUsers(rr, authedRequest(http.MethodGet, "/api/v1/user/search", "", alice.ID))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
