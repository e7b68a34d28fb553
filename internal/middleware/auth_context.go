package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	headerDebugUserID    = "X-Debug-User-ID"
	headerDebugUserEmail = "X-Debug-User-Email"
)

type claimsCtxKey struct{}

type authConfig struct {
	log logger.Logger
}

type AuthOption func(*authConfig)

func WithAuthLogger(l logger.Logger) AuthOption {
	return func(c *authConfig) { c.log = l }
}

// AuthContext resuelve la identidad del request y la deja en el ctx.
//   - verifier == nil: modo dev, la identidad sale de X-Debug-User-ID (+ X-Debug-User-Email).
//   - verifier != nil: Bearer token verificado; los headers de debug se ignoran.
//
// Sin identidad el request sigue como anónimo y cada handler decide si exige auth
// (lookups y feed de extraviados son públicos). Si el verifier no está disponible
// se corta con 503: no se puede distinguir anónimo de autenticado.
func AuthContext(verifier auth.AuthVerifier, opts ...AuthOption) func(http.Handler) http.Handler {
	cfg := authConfig{log: logger.Nop()}
	for _, o := range opts {
		o(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get(headerDebugUserID))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				claims := auth.Claims{
					UserID: uid,
					Email:  strings.TrimSpace(r.Header.Get(headerDebugUserEmail)),
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			switch {
			case errors.Is(err, auth.ErrUnavailable):
				cfg.log.Error("auth verifier unavailable", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"error":      err.Error(),
				})
				http.Error(w, "auth unavailable", http.StatusServiceUnavailable)
				return
			case err != nil:
				cfg.log.Debug("bearer token rejected", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"error":      err.Error(),
				})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims guarda la identidad en el ctx. Claims sin UserID no cuentan como identidad.
func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey{}).(auth.Claims)
	if !ok || c.UserID == "" {
		return auth.Claims{}, false
	}
	return c, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
