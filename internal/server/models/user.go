// Package models contains the domain entities of the identity and ownership
// service.
package models

import "time"

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name,omitempty"`
	Roles        Roles     `db:"roles" json:"roles"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Principal is the authenticated caller, resolved per request. Roles are a
// snapshot taken at resolution time.
type Principal struct {
	ID    string
	Email string
	Roles Roles
}

// PrincipalOf builds a Principal from a stored user.
func PrincipalOf(u *User) *Principal {
	return &Principal{ID: u.ID, Email: u.Email, Roles: append(Roles(nil), u.Roles...)}
}
