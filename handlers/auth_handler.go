package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"telescordAPI/internal/user"
	"telescordAPI/middleware"
	"telescordAPI/services"
)

const authTokenTTL = time.Hour

type AuthHandler struct {
	userService         *services.UserService
	relationshipService *services.RelationshipService
}

func NewAuthHandler(userService *services.UserService, relationshipService *services.RelationshipService) *AuthHandler {
	return &AuthHandler{
		userService:         userService,
		relationshipService: relationshipService,
	}
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(authTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.Register(ctx, &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	token, err := middleware.GenerateToken(u.ID, authTokenTTL)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	setAuthCookie(w, token)

	respondWithJSON(w, http.StatusCreated, user.AuthResponse{
		Message:    "Registration successful",
		UserID:     u.ID,
		Username:   u.Username,
		AvatarPath: u.AvatarPath,
	})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	token, err := middleware.GenerateToken(u.ID, authTokenTTL)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	setAuthCookie(w, token)

	respondWithJSON(w, http.StatusOK, user.AuthResponse{
		Message:    "Login successful",
		UserID:     u.ID,
		Username:   u.Username,
		AvatarPath: u.AvatarPath,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GET /api/v1/auth/verify - session check plus the full-state fetch the
// client uses to render its friend lists.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	friends, err := h.relationshipService.Friends(ctx, userID)
	if err != nil {
		respondWithAppError(w, err)
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

	respondWithJSON(w, http.StatusOK, user.VerifyResponse{
		UserID:           u.ID,
		Username:         u.Username,
		AvatarPath:       u.AvatarPath,
		Friends:          friends,
		RequestsReceived: received,
		RequestsSent:     sent,
	})
}

// POST /api/v1/user/avatar - multipart avatar upload
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Avatar file was not provided")
		return
	}
	defer file.Close()

	avatarPath, err := saveUpload(file, header.Filename, userID)
	if err != nil {
		log.Printf("UploadAvatar: failed to save file for %s: %v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	if err := h.userService.UpdateAvatar(ctx, userID, avatarPath); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message":    "Avatar updated successfully",
		"avatarPath": avatarPath,
	})
}

// saveUpload stores a multipart file under UPLOADS_DIR and returns the
// public /uploads/ URL for it.
func saveUpload(src io.Reader, filename, userID string) (string, error) {
	dir := os.Getenv("UPLOADS_DIR")
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%d_%s", userID, time.Now().UnixMilli(), filepath.Base(filename))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return "/uploads/" + name, nil
}
