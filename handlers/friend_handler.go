package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"telescordAPI/middleware"
	"telescordAPI/services"
)

type FriendHandler struct {
	userService         *services.UserService
	relationshipService *services.RelationshipService
	router              *services.DeliveryRouter
	notificationService *services.NotificationService
}

func NewFriendHandler(
	userService *services.UserService,
	relationshipService *services.RelationshipService,
	router *services.DeliveryRouter,
	notificationService *services.NotificationService,
) *FriendHandler {
	return &FriendHandler{
		userService:         userService,
		relationshipService: relationshipService,
		router:              router,
		notificationService: notificationService,
	}
}

// POST /api/v1/friends/request - send a friend request by username
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		TargetUsername string `json:"targetUsername"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetUsername == "" {
		respondWithError(w, http.StatusBadRequest, "targetUsername is required")
		return
	}

	target, err := h.userService.GetUserByUsername(ctx, req.TargetUsername)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if _, err := h.relationshipService.SendRequest(ctx, userID, target.ID); err != nil {
		respondWithAppError(w, err)
		return
	}

	sender, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	// Live notification for the target; offline users see the request on
	// their next verify.
	h.router.NotifyRelationshipChanged(target.ID, userID)
	if err := h.notificationService.NotifyFriendRequest(ctx, target.ID, userID, sender.Username); err != nil {
		log.Printf("SendFriendRequest: notification for %s failed: %v", target.ID, err)
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Friend request sent to %s", target.Username),
	})
}

// POST /api/v1/friends/accept - accept a pending request
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		SenderID string `json:"senderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SenderID == "" {
		respondWithError(w, http.StatusBadRequest, "senderId is required")
		return
	}

	sender, err := h.relationshipService.AcceptRequest(ctx, userID, req.SenderID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	acceptor, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	// Both parties' friend lists changed.
	h.router.NotifyRelationshipChanged(userID, sender.ID)
	h.router.NotifyRelationshipChanged(sender.ID, userID)
	if err := h.notificationService.NotifyFriendAccepted(ctx, sender.ID, userID, acceptor.Username); err != nil {
		log.Printf("AcceptFriendRequest: notification for %s failed: %v", sender.ID, err)
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("You are now friends with %s!", sender.Username),
		"newFriend": sender.Card(),
	})
}

// POST /api/v1/friends/reject - drop a pending request without friending
func (h *FriendHandler) RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		SenderID string `json:"senderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SenderID == "" {
		respondWithError(w, http.StatusBadRequest, "senderId is required")
		return
	}

	if err := h.relationshipService.RejectRequest(ctx, userID, req.SenderID); err != nil {
		respondWithAppError(w, err)
		return
	}

	h.router.NotifyRelationshipChanged(req.SenderID, userID)

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend request rejected"})
}

// DELETE /api/v1/friends - remove an existing friend
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		FriendID string `json:"friendId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FriendID == "" {
		respondWithError(w, http.StatusBadRequest, "friendId is required")
		return
	}

	if err := h.relationshipService.RemoveFriend(ctx, userID, req.FriendID); err != nil {
		respondWithAppError(w, err)
		return
	}

	h.router.NotifyRelationshipChanged(req.FriendID, userID)

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}

// GET /api/v1/friends
func (h *FriendHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	friends, err := h.relationshipService.Friends(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

// GET /api/v1/friends/requests - pending requests, both directions
func (h *FriendHandler) GetFriendRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	received, err := h.relationshipService.RequestsReceived(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	sent, err := h.relationshipService.RequestsSent(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"received": received,
		"sent":     sent,
	})
}

// GET /api/v1/user/search?q=
func (h *FriendHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Search query parameter 'q' is required")
		return
	}

	results, err := h.userService.SearchUsers(ctx, userID, query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
