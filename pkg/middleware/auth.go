package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apperrors "masterbook/pkg/errors"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
)

const userKey contextKey = "authenticated_user"

// TokenResolver turns a bearer token into the account it belongs to.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth guards a route: a valid bearer token must resolve to an
// account, which is then available via UserFrom.
func RequireAuth(resolver TokenResolver, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token := extractBearerToken(r)
			if token == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("missing bearer token"))
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Warn("Token resolution failed",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// RequireRole narrows an authenticated route to one role.
func RequireRole(role model.Role) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			user, ok := UserFrom(r.Context())
			if !ok {
				_ = httputil.WriteError(w, apperrors.Unauthorized("authentication required"))
				return
			}
			if user.Role != role {
				_ = httputil.WriteError(w, apperrors.Forbidden("insufficient role"))
				return
			}
			next(w, r, ps)
		}
	}
}

func UserFrom(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
