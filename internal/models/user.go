package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User as visible to the admin console. Registration and credentials live in
// the auth service; this backend only reads the directory and manages roles.
type User struct {
	ID        string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Search string
	Page   int
	Limit  int
}
