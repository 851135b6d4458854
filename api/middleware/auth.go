package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/tunedash-backend/api/responses"
	pkgAuth "github.com/angelmondragon/tunedash-backend/pkg/auth"
	"github.com/angelmondragon/tunedash-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tunedash-backend/pkg/errors"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
	"github.com/angelmondragon/tunedash-backend/pkg/notifapi"
)

// Auth validates a bearer token and seeds the request context with the
// claims. The raw token is kept so outgoing notification API calls can be
// made on the caller's behalf.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			accountID := claims.AccountID.String()
			userID := claims.UserID.String()

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxAccountID, accountID)
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			ctx = notifapi.ContextWithToken(ctx, token)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    userID,
					"account_id": accountID,
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = raw[7:]
	}
	return strings.TrimSpace(raw)
}
