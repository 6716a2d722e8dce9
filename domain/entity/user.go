package entity

import (
	"strings"
	"time"
)

// Role is the wire value of a user's role
type Role string

const (
	RolePOC     Role = "poc"
	RoleHOD     Role = "hod"
	RoleFinance Role = "finance"
	RoleAdmin   Role = "admin"

	// RoleSystem is never persisted; it identifies automatic transitions
	// (activation after payment, expiry scan).
	RoleSystem Role = "system"
)

// roleRequesterAlias is accepted on input and stored as RolePOC.
const roleRequesterAlias = "requester"

// Subrole narrows the finance role
type Subrole string

const (
	SubroleNone Subrole = ""
	SubroleAPA  Subrole = "apa"
	SubroleAM   Subrole = "am"
)

// ParseRole normalizes a wire role string. The boolean is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RolePOC), roleRequesterAlias:
		return RolePOC, true
	case string(RoleHOD):
		return RoleHOD, true
	case string(RoleFinance):
		return RoleFinance, true
	case string(RoleAdmin):
		return RoleAdmin, true
	}
	return "", false
}

// ParseSubrole normalizes a wire subrole string
func ParseSubrole(s string) (Subrole, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SubroleNone, true
	case string(SubroleAPA):
		return SubroleAPA, true
	case string(SubroleAM):
		return SubroleAM, true
	}
	return "", false
}

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Subrole    Subrole   `json:"subrole,omitempty"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewUser(id, name, email string, role Role, subrole Subrole, department string) *User {
	now := time.Now().UTC()
	return &User{
		ID:         id,
		Name:       name,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Role:       role,
		Subrole:    subrole,
		Department: strings.TrimSpace(department),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Actor returns the identity the workflow authorizes against
func (u *User) Actor() Actor {
	return Actor{
		ID:         u.ID,
		Role:       u.Role,
		Subrole:    u.Subrole,
		Department: u.Department,
	}
}

// Actor is the caller of a workflow action
type Actor struct {
	ID         string  `json:"id"`
	Role       Role    `json:"role"`
	Subrole    Subrole `json:"subrole,omitempty"`
	Department string  `json:"department,omitempty"`
}

// SystemActor performs automatic transitions
func SystemActor() Actor {
	return Actor{ID: "system", Role: RoleSystem}
}

func (a Actor) IsFinance(sub Subrole) bool {
	return a.Role == RoleFinance && a.Subrole == sub
}

// SameDepartment compares departments case-insensitively
func SameDepartment(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
