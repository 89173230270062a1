package user

import "github.com/google/uuid"

// User is the display metadata kept for each room participant
type User struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// GenerateID returns an opaque identifier for users and moves
func GenerateID() string {
	return uuid.NewString()
}
