package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// authMiddleware rejects API requests without a valid token (401),
// or whose user does not have any of the given roles (403).
func (a *authenticator) authMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := tokenFromRequest(ctx)
			if tokenStr == "" {
				return errUnauthorized
			}
			claims, err := a.parseToken(tokenStr)
			if err != nil {
				return errTokenInvalid
			}
			if !hasAnyRole(claims, roles) {
				return errHttpForbidden
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func hasAnyRole(claims *Claims, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if claims.Role == role {
			return true
		}
	}
	return false
}

func dashboardPath(role string) string {
	return "/" + role + "/dashboard"
}

// portalGate keeps visitors of the portal pages of role in their lane:
// anonymous visitors and invalid sessions go to the login page,
// users of another role go to their own dashboard.
func (a *authenticator) portalGate(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := tokenFromRequest(ctx)
			if tokenStr == "" {
				return ctx.Redirect(http.StatusFound, "/login")
			}
			claims, err := a.parseToken(tokenStr)
			if err != nil {
				a.clearCookie(ctx)
				return ctx.Redirect(http.StatusFound, "/login")
			}
			if claims.Role != role {
				return ctx.Redirect(http.StatusFound, dashboardPath(claims.Role))
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// loginGate sends logged in users to their dashboard.
func (a *authenticator) loginGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tokenStr := tokenFromRequest(ctx)
		if tokenStr == "" {
			return next(ctx)
		}
		claims, err := a.parseToken(tokenStr)
		if err != nil {
			a.clearCookie(ctx)
			return ctx.Redirect(http.StatusFound, "/login")
		}
		return ctx.Redirect(http.StatusFound, dashboardPath(claims.Role))
	}
}
