package models

import "time"

// User represents a user account in the system.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash, never exposed to the client
	IsActive  bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View returns the client-facing representation of the user.
func (u User) View() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserView is the serialized form of a User.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserViews maps a slice of users to their views.
func UserViews(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views
}

// UserBlock is a directed edge meaning the blocker has blocked the blocked user.
type UserBlock struct {
	ID        int64     `json:"id"`
	BlockerID int64     `json:"blocker_id"`
	BlockedID int64     `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is the body returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
