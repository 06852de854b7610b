package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core/session"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// sessionMiddleware rejects tokens whose session was revoked. It must run after the JWT middleware.
func sessionMiddleware(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Id == "" {
				return errUnauthorized
			}
			s, err := mgr.Check(ctx.Request().Context(), claims.Id)
			if err != nil {
				switch errors.Cause(err) {
				case session.ErrNotFound:
					return errUnauthorized
				case session.ErrRevoked:
					return errSessionRevoked
				}
				return errors.Wrap(err, "checking session")
			}
			ctx.Set(contextSessionKey, s)
			return next(ctx)
		}
	}
}
