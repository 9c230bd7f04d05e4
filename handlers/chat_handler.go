package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"telescordAPI/middleware"
	"telescordAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ChatHandler struct {
	hub         *services.Hub
	router      *services.DeliveryRouter
	userService *services.UserService
}

func NewChatHandler(hub *services.Hub, router *services.DeliveryRouter, userService *services.UserService) *ChatHandler {
	return &ChatHandler{
		hub:         hub,
		router:      router,
		userService: userService,
	}
}

// GET /api/v1/chat/ws - upgrade to a websocket session. Auth comes from the
// cookie or a ?token= query param since browsers can't set headers on ws dials.
func (h *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ResolveUserID(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ServeWS: upgrade failed for %s: %v", userID, err)
		return
	}

	client := services.NewClient(h.hub, conn, u.ID, u.Username)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(h.router)
}

// GET /api/v1/chat/history?recipientId=
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	recipientID := r.URL.Query().Get("recipientId")
	if recipientID == "" {
		respondWithError(w, http.StatusBadRequest, "recipientId query parameter is required")
		return
	}

	messages, err := h.router.History(ctx, userID, recipientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}
