package postgres

import "context"

// Counter implementa pets.Counter sobre la fila única de pet_id_counter.
// El UPDATE toma el lock de la fila hasta el commit: dos registros concurrentes
// se serializan y un rollback deja el valor sin consumir.
type Counter struct {
	db DB
}

func NewCounter(db DB) *Counter {
	return &Counter{db: db}
}

const nextCounterSQL = `UPDATE pet_id_counter SET last_value = last_value + 1 WHERE id = 1 RETURNING last_value`

func (c *Counter) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := querierFromCtx(ctx, c.db).QueryRow(ctx, nextCounterSQL).Scan(&n); err != nil {
		return 0, mapError(err, nil)
	}
	return n, nil
}

func (c *Counter) Last(ctx context.Context) (int64, error) {
	var n int64
	if err := querierFromCtx(ctx, c.db).QueryRow(ctx, `SELECT last_value FROM pet_id_counter WHERE id = 1`).Scan(&n); err != nil {
		return 0, mapError(err, nil)
	}
	return n, nil
}
