package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/avrusin/storefront/internal/service/token"
)

// Middleware wraps routes with cookie auth: a valid access token passes
// through, an expired one is rotated off the refresh token, anything
// else is rejected. Role gates stack on top.
type Middleware struct {
	Tokens *token.TokenService
}

func (m *Middleware) resolve(c echo.Context) (jwt.MapClaims, error) {
	if asCookie, err := c.Cookie("accessToken"); err == nil && asCookie.Value != "" {
		claims, err := m.Tokens.ParseAccess(asCookie.Value)
		if err == nil {
			return claims, nil
		}
		// Anything but expiry is a hard failure; expiry falls through
		// to the refresh path.
		if !isExpired(err) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil || rfCookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}

	newAccess, newRefresh, claims, err := m.Tokens.Rotate(rfCookie.Value)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	c.SetCookie(token.CreateCookie("accessToken", newAccess, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(token.RefreshTTL)))
	return claims, nil
}

func isExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

// RequireRole admits only signed-in principals carrying one of the
// given roles and stores subject id and role on the echo context.
func (m *Middleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := m.resolve(c)
			if err != nil {
				return err
			}

			subRaw, ok := claims["sub"].(float64)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
			}
			role, ok := claims["role"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid role claim")
			}
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}

			c.Set("subjectID", uint(subRaw))
			c.Set("role", role)
			return next(c)
		}
	}
}

// SubjectID reads the authenticated principal id set by RequireRole.
func SubjectID(c echo.Context) (uint, error) {
	id, ok := c.Get("subjectID").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing auth context")
	}
	return id, nil
}

func Role(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}
