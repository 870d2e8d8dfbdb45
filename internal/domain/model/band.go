package model

import (
	"time"
)

// Band membership roles. A user holds at most one role per band.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}

type Band struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BandMember is the role-carrying edge between a user and a band.
type BandMember struct {
	BandID   string    `json:"band_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	// Denormalized for member listings; empty unless the query joins users.
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (m *BandMember) IsAdmin() bool {
	return m.Role == RoleAdmin
}
