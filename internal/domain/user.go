package domain

import "strings"

// UserID is the opaque identity the profile layer assigns to a user.
type UserID string

func (id UserID) String() string {
	return string(id)
}

func (id UserID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// User is the read-only slice of a profile needed to render an actor preview.
type User struct {
	ID             UserID `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}
