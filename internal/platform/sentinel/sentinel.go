package sentinel

import "errors"

// Errores de infraestructura compartidos por los adapters de storage.
// Los errores de negocio (duplicados, not found, estados) viven en cada dominio.
var (
	// ErrStoreUnavailable envuelve fallas del storage (red, auth, timeouts).
	// Es opaco para el caller y no se reintenta internamente.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConflict es un unique violation que no corresponde a ninguna regla conocida.
	ErrConflict = errors.New("conflict")
)
