package backendtest

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"citizen-portal/internal/domain"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

// bearer verifies the HS256 token the backend issued.
func (s *Server) bearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			return message(c, http.StatusUnauthorized, "No token provided")
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil {
			return message(c, http.StatusUnauthorized, "Invalid token")
		}
		id, _ := claims["id"].(string)
		role, _ := claims["role"].(string)
		c.Set(ctxUserID, id)
		c.Set(ctxRole, domain.Role(role))
		return next(c)
	}
}

func (s *Server) requireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ctxRole).(domain.Role)
			if !slices.Contains(roles, role) {
				return message(c, http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}

func callerID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

func callerRole(c echo.Context) domain.Role {
	role, _ := c.Get(ctxRole).(domain.Role)
	return role
}
