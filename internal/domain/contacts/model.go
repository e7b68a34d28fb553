package contacts

import "time"

// EmergencyContact pertenece a un usuario. Como mucho uno marcado primary por usuario.
type EmergencyContact struct {
	ID     string
	UserID string

	ContactName  string
	PhoneNumber  string
	Relationship string
	IsPrimary    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Input struct {
	ContactName  string
	PhoneNumber  string
	Relationship string
	IsPrimary    bool
}

// UpdateInput usa punteros para PATCH: nil = no tocar.
type UpdateInput struct {
	ContactName  *string
	PhoneNumber  *string
	Relationship *string
	IsPrimary    *bool
}
