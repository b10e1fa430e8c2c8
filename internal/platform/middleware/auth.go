package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"playerservice/internal/jwtauth"
	"playerservice/internal/platform/metrics"
	"playerservice/internal/profile"
)

// TokenVerifier defines the interface for verifying bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*jwtauth.Claims, error)
}

// Principal is the authenticated identity reconstructed from a verified
// token for the duration of one request. It is never persisted.
type Principal struct {
	PlayerID uuid.UUID
	Username string
	Role     profile.Role
}

type contextKeyPrincipal struct{}

// PrincipalFrom retrieves the authenticated principal from the context.
// The second return is false for anonymous requests.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal{}).(Principal)
	return p, ok
}

// WithPrincipal installs a principal into the context. Exported for handler
// tests; request paths go through Authenticate.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, p)
}

// Authenticate establishes the request's principal from the Authorization
// header. It never rejects a request: a missing or failed credential leaves
// the request anonymous and downstream authorization decides what anonymous
// access may do. Each request reconstructs the principal fresh from its own
// credential.
func Authenticate(verifier TokenVerifier, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "bearer token rejected, proceeding anonymous",
					"error", err,
				)
				if m != nil {
					m.AuthTokensRejected.Inc()
				}
				next.ServeHTTP(w, r)
				return
			}

			playerID, err := uuid.Parse(claims.Subject)
			if err != nil || len(claims.Authorities) == 0 {
				logger.WarnContext(ctx, "token verified but claims unusable, proceeding anonymous",
					"subject", claims.Subject,
				)
				if m != nil {
					m.AuthTokensRejected.Inc()
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithPrincipal(ctx, Principal{
				PlayerID: playerID,
				Username: claims.Username,
				Role:     profile.ParseRole(claims.Authorities[0]),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
