package memory

import "context"

// Counter implementa pets.Counter sobre el estado transaccional.
type Counter struct {
	store *Store
}

func NewCounter(store *Store) *Counter {
	return &Counter{store: store}
}

func (c *Counter) Next(ctx context.Context) (int64, error) {
	var n int64
	err := c.store.write(ctx, func(st *state) error {
		st.counter++
		n = st.counter
		return nil
	})
	return n, err
}

// Last devuelve el último valor emitido (0 si no hubo ninguno).
func (c *Counter) Last(ctx context.Context) (int64, error) {
	var n int64
	err := c.store.read(ctx, func(st *state) error {
		n = st.counter
		return nil
	})
	return n, err
}
