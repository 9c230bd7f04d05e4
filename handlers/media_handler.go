package handlers

import (
	"log"
	"net/http"

	"telescordAPI/middleware"
)

const maxMediaUploadBytes = 10 << 20 // 10MB

type MediaHandler struct{}

func NewMediaHandler() *MediaHandler {
	return &MediaHandler{}
}

// POST /api/v1/media/upload - store a chat attachment and return its URL.
// The caller then references the URL in a dm_message frame with isMedia set.
func (h *MediaHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxMediaUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "File too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing 'file' form field")
		return
	}
	defer file.Close()

	url, err := saveUpload(file, header.Filename, userID)
	if err != nil {
		log.Printf("UploadMedia: failed to save file for %s: %v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     url,
	})
}
