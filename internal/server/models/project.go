package models

import "time"

// ExternalProject is owned by exactly one user. It is created and listed,
// never updated or deleted.
type ExternalProject struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"user_id" json:"userId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
