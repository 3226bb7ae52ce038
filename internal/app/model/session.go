package model

import "time"

// Session binds a browser session to the backend bearer token issued at login.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is the backend answer to login and register. Token is empty when
// registration does not log the new user in.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
