package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/plantando/internal/apperror"
)

// Client-facing messages of the authorization gate.
const (
	MsgBearerFormat    = "Não autorizado. Formato de token esperado: Bearer <token>."
	MsgTokenMissing    = "Não autorizado. Token não fornecido."
	MsgTokenExpired    = "Não autorizado. Token expirado."
	MsgTokenInvalid    = "Não autorizado. Token inválido."
	MsgAuthFailure     = "Erro ao processar autenticação."
	MsgMissingIdentity = "Não autorizado. Informações do usuário ausentes."
)

// contextKey is an unexported type so no other package can read or shadow
// the claims stored by this middleware.
type contextKey string

const claimsKey contextKey = "claims"

// ErrorWriter renders an error response. The HTTP layer passes its central
// error responder here so the gate produces the same body shape as every
// other failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireAuth is a middleware that enforces a valid bearer token.
//
// It reads `Authorization: Bearer <token>`, validates the JWT, and stores
// the Claims in the request context. Failures never reach the next handler:
//
//	no header / other scheme     → 401 MsgBearerFormat
//	"Bearer" with no token       → 401 MsgTokenMissing
//	expired                      → 401 MsgTokenExpired
//	malformed / bad signature    → 401 MsgTokenInvalid
//	missing secret, anything else → 500 MsgAuthFailure
func RequireAuth(tokens *TokenService, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, tokens)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying the given claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated user's id, or (0, false) for
// anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// CheckOwnership allows the request only when targetID (a raw path value)
// is the authenticated user's own id.
//
// It runs before the target is parsed or looked up by any service, so a
// caller gets 403 for another user's id even when that id is not numeric or
// does not exist.
func CheckOwnership(ctx context.Context, targetID, message string) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return apperror.Unauthorized(MsgMissingIdentity)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(targetID), 10, 64)
	if err != nil || id != claims.UserID {
		return apperror.Forbidden(message)
	}
	return nil
}

func authenticate(r *http.Request, tokens *TokenService) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if len(header) < len("bearer") || !strings.EqualFold(header[:len("bearer")], "bearer") {
		return nil, apperror.Unauthorized(MsgBearerFormat)
	}
	rest := header[len("bearer"):]
	if rest == "" {
		return nil, apperror.Unauthorized(MsgTokenMissing)
	}
	if rest[0] != ' ' {
		return nil, apperror.Unauthorized(MsgBearerFormat)
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return nil, apperror.Unauthorized(MsgTokenMissing)
	}

	claims, err := tokens.Validate(token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, ErrTokenExpired):
		return nil, apperror.Unauthorized(MsgTokenExpired)
	case errors.Is(err, ErrTokenInvalid):
		return nil, apperror.Unauthorized(MsgTokenInvalid)
	default:
		return nil, apperror.InternalConfig(MsgAuthFailure, err)
	}
}
