package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telescordAPI/internal/store/memory"
	"telescordAPI/internal/types/notification"
	"telescordAPI/internal/user"
	"telescordAPI/services"
)

func newNotificationTestEnv(t *testing.T) (*mux.Router, *services.NotificationService, *user.User) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	mem := memory.New()
	userService := services.NewUserService(mem)
	notificationService := services.NewNotificationService(mem, mem)
	t.Cleanup(notificationService.Stop)

	bob, err := userService.Register(context.Background(), &user.RegisterRequest{
		Username: "bob",
		Password: "supersecret",
	})
	require.NoError(t, err)

	handler := NewNotificationHandler(notificationService)

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/notifications", handler.GetNotifications).Methods("GET")
	r.HandleFunc("/api/v1/notifications/unread-count", handler.GetUnreadCount).Methods("GET")
	r.HandleFunc("/api/v1/notifications/{id}/read", handler.MarkAsRead).Methods("PUT")
	r.HandleFunc("/api/v1/notifications/read-all", handler.MarkAllAsRead).Methods("PUT")
	r.HandleFunc("/api/v1/notifications/{id}", handler.DeleteNotification).Methods("DELETE")
	r.HandleFunc("/api/v1/notifications/register-device", handler.RegisterDevice).Methods("POST")

	return r, notificationService, bob
}

func TestNotificationRoutes(t *testing.T) {
	router, svc, bob := newNotificationTestEnv(t)
	ctx := context.Background()

	require.NoError(t, svc.NotifyFriendRequest(ctx, bob.ID, "actor-1", "alice"))

	t.Log("List")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/notifications", "", bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	var list notification.NotificationListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, 1, list.UnreadCount)
	notifID := list.Notifications[0].ID

	t.Log("Unread count")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/notifications/unread-count", "", bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"unreadCount": 1}`, rr.Body.String())

	t.Log("Mark one read via path var")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPut, "/api/v1/notifications/"+notifID+"/read", "", bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/v1/notifications/unread-count", "", bob.ID))
	assert.JSONEq(t, `{"unreadCount": 0}`, rr.Body.String())

	t.Log("Delete")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodDelete, "/api/v1/notifications/"+notifID, "", bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	t.Log("Register device")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/notifications/register-device",
		`{"token": "fcm-token-1", "platform": "android"}`, bob.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/v1/notifications/register-device", `{}`, bob.ID))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
