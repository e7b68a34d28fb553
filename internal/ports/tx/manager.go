package tx

import "context"

// Manager corre fn dentro de una transacción del storage.
// Los repos encuentran la transacción en el ctx que recibe fn.
// Llamadas anidadas se unen a la transacción externa.
type Manager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
