package user

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Message    string `json:"message"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	AvatarPath string `json:"avatarPath,omitempty"`
}

// VerifyResponse is the full-state fetch a client performs on startup and
// after a friend_update event.
type VerifyResponse struct {
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	AvatarPath       string `json:"avatarPath,omitempty"`
	Friends          []Card `json:"friends"`
	RequestsReceived []Card `json:"requestsReceived"`
	RequestsSent     []Card `json:"requestsSent"`
}
