package records

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Record, error)
	// Void es un soft delete; ErrNotFound si no existe o ya estaba anulado.
	Void(ctx context.Context, id, reason string, at time.Time) error
	// ListDue devuelve registros activos del tipo con next_due_date en [from, to], por fecha asc.
	ListDue(ctx context.Context, petID string, typ RecordType, from, to time.Time) ([]Record, error)
}

type ListFilter struct {
	Types         []RecordType
	From          *time.Time
	To            *time.Time
	Query         string
	IncludeVoided bool
	Limit         int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

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
