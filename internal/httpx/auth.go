package httpx

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/knoott/partners-api/internal/orders"
)

type ctxKey struct{}

// TokenValidator is satisfied by *auth.Signer.
type TokenValidator interface {
	Validate(token string) (orders.Actor, error)
}

// Authenticate resolves the bearer token into an orders.Actor on the request context.
func Authenticate(v TokenValidator, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authorization header is missing")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid token format")
				return
			}
			actor, err := v.Validate(token)
			if err != nil {
				log.Debugw("invalid token", "error", err)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, actor)))
		})
	}
}

func actorFrom(ctx context.Context) (orders.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(orders.Actor)
	return a, ok
}

// WebhookSecret guards provider callbacks with a shared secret header.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Webhook-Secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
