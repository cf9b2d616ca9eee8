package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/Veysel440/ipgate/internal/errors"
	"github.com/Veysel440/ipgate/internal/jwtauth"
)

type ctxKey string

const operatorKey ctxKey = "operator"

func Operator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(operatorKey).(string)
	return v, ok
}

// AuthWith requires a Bearer HS256 token signed by one of the provider's keys.
func AuthWith(keys jwtauth.KeyProvider, log *slog.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFn := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			kid = keys.CurrentKID()
		}
		if k, ok := keys.SecretFor(kid); ok && len(k) > 0 {
			return k, nil
		}
		return nil, jwt.ErrTokenUnverifiable
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				apperr.Write(w, log, r, apperr.Unauthorized)
				return
			}
			var claims jwt.RegisteredClaims
			tok, err := parser.ParseWithClaims(strings.TrimPrefix(h, "Bearer "), &claims, keyFn)
			if err != nil || !tok.Valid || claims.Subject == "" {
				apperr.Write(w, log, r, apperr.E(http.StatusUnauthorized, "unauthorized", "unauthorized", err, nil))
				return
			}
			ctx := context.WithValue(r.Context(), operatorKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
