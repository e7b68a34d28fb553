package auth

import (
	"context"
	"errors"
)

// ErrUnavailable: el verifier no pudo decidir (upstream caído, timeout).
// Distinto de un token inválido: el request no se trata como anónimo.
var ErrUnavailable = errors.New("auth verifier unavailable")

// AuthVerifier valida un bearer token y devuelve la identidad del usuario.
// Implementaciones: adapters/auth/jwt (HS256 local) y adapters/auth/remote.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
