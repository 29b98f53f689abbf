package middlewares

import (
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/wearsync/internal/http/errors"
)

// AuthConfig configura la validación de sesiones locales.
type AuthConfig struct {
	Secret []byte
	Issuer string // opcional; si está vacío no se valida iss
}

// RequireAuth valida Authorization: Bearer <JWT HS256> y guarda el user ID
// (claim sub, UUID) en el contexto. Si el token es inválido o no está
// presente, responde 401.
func RequireAuth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			opts := []jwtv5.ParserOption{
				jwtv5.WithValidMethods([]string{"HS256"}),
			}
			if cfg.Issuer != "" {
				opts = append(opts, jwtv5.WithIssuer(cfg.Issuer))
			}

			claims := jwtv5.MapClaims{}
			token, err := jwtv5.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
				return cfg.Secret, nil
			}, opts...)
			if err != nil || !token.Valid {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				errors.WriteError(w, errors.ErrTokenInvalid.WithDetail("missing sub claim"))
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				errors.WriteError(w, errors.ErrTokenInvalid.WithDetail("sub is not a valid user id"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
