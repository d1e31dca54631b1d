package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// PrincipalKey is the echo context key the principal claims are stored under.
const PrincipalKey = "principal"

// Auth validates the JWT when one is present and injects the principal
// claims into context. A missing Authorization header is not an error —
// anonymous demo flows are legitimate and simply carry no principal — but a
// malformed header or invalid token is rejected.
//
// The role claim is read from "role", falling back to the legacy "hub_role"
// claim still issued for older accounts.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			if role == "" {
				role, _ = claims["hub_role"].(string)
			}
			code, _ := claims["code"].(string)

			c.Set(PrincipalKey, ports.PrincipalClaims{
				Subject: sub,
				Role:    domain.ParseRole(role),
				Code:    code,
				Token:   parts[1],
			})

			return next(c)
		}
	}
}
