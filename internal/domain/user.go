package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the platform-level role of a user account. Staff review license
// requests and stock the pool; team-level admin rights are derived from each
// team's admin set, not from this role.
type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
)

// User holds an account row. TeamIDs lists the teams the user is enrolled in.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name,omitempty"`
	Role         Role        `json:"role"`
	TeamIDs      []uuid.UUID `json:"team_ids"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
