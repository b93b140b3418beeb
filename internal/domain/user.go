package domain

import "time"

// User is a row in the local user directory, mirrored from the identity
// provider. Only the identifier matters to notification fan-out.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
