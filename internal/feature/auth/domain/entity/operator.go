// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Operator is a person allowed to change output settings.
type Operator struct {
	ID   uint
	Name string
	// PasswordHash is the bcrypt hash of the operator's password.
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
