package pets

import (
	"context"
	"fmt"
)

// Counter es el contador atómico del storage.
// Next incrementa y devuelve el nuevo valor; dentro de una transacción,
// un rollback deja el contador como estaba.
type Counter interface {
	Next(ctx context.Context) (int64, error)
}

// IDSequencer emite PublicIDs crecientes y sin colisiones.
type IDSequencer struct {
	counter Counter
}

func NewIDSequencer(c Counter) *IDSequencer {
	return &IDSequencer{counter: c}
}

// Next devuelve 000-000-0000001 para la primera mascota.
// Pasado MaxCounter devuelve ErrSequenceExhausted (nunca da la vuelta).
func (s *IDSequencer) Next(ctx context.Context) (PublicID, error) {
	n, err := s.counter.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next public id: %w", err)
	}
	return FormatPublicID(n)
}
