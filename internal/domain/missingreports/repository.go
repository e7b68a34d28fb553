package missingreports

import (
	"context"
	"time"
)

type Repository interface {
	// Create falla con ErrAlreadyMissing si la mascota ya tiene un reporte abierto.
	Create(ctx context.Context, r MissingReport) error
	GetByID(ctx context.Context, id string) (MissingReport, error)
	GetOpenByPet(ctx context.Context, petID string) (MissingReport, error)
	CountOpenByPet(ctx context.Context, petID string) (int, error)

	// UpdateStatus es condicional: solo aplica si el status actual es from.
	// Si no, ErrStaleStatus.
	UpdateStatus(ctx context.Context, id string, from, to Status, foundAt *time.Time, at time.Time) error

	List(ctx context.Context, filter ListFilter) ([]MissingReport, error)
}

// ListFilter: campos vacíos no filtran. Orden: missing_date desc.
type ListFilter struct {
	PetID          string
	ReporterUserID string
	Statuses       []Status
	Limit          int
	Offset         int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// NormalizeLimit acota Limit a [1, MaxListLimit] con default DefaultListLimit.
func (f ListFilter) NormalizeLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return f.Limit
	}
}
