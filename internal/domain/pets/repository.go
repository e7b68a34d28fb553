package pets

import (
	"context"
	"time"
)

type Repository interface {
	// Create falla con ErrDuplicatePublicID / ErrDuplicateGovernmentID según el índice violado.
	Create(ctx context.Context, p Pet) error
	// Update persiste campos de perfil (nunca status).
	Update(ctx context.Context, p Pet) error
	SetStatus(ctx context.Context, id string, status Status, at time.Time) error

	GetByID(ctx context.Context, id string) (Pet, error)
	GetByPublicID(ctx context.Context, publicID PublicID) (Pet, error)
	GetByGovernmentRegistrationNumber(ctx context.Context, number string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)

	// Delete falla con ErrHasReports si algún reporte de extravío referencia a la mascota.
	Delete(ctx context.Context, id string) error
}
