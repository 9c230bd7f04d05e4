package user

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarPath   string    `json:"avatarPath,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Card is the public projection of a user embedded in friend and request
// lists.
type Card struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarPath string `json:"avatarPath,omitempty"`
}

func (u *User) Card() Card {
	return Card{ID: u.ID, Username: u.Username, AvatarPath: u.AvatarPath}
}
