package contacts

import "context"

type Repository interface {
	// Create/Update fallan con ErrDuplicatePrimary si ya hay otro primary (índice parcial).
	Create(ctx context.Context, c EmergencyContact) error
	Update(ctx context.Context, c EmergencyContact) error
	Delete(ctx context.Context, userID, id string) error

	GetByID(ctx context.Context, userID, id string) (EmergencyContact, error)
	// ListByUser: primary primero, después los más nuevos.
	ListByUser(ctx context.Context, userID string) ([]EmergencyContact, error)
	GetPrimary(ctx context.Context, userID string) (EmergencyContact, error)

	// UnsetPrimary desmarca el primary actual del usuario (si hay).
	UnsetPrimary(ctx context.Context, userID string) error
}
