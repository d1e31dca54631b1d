package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/cks-portal/identity-service/internal/api/middleware"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// sessionHeader scopes the session cache for anonymous demo flows that have
// no authenticated subject to key on.
const sessionHeader = "X-Session-ID"

// ctxPrincipal extracts the claims injected by the Auth middleware. Anonymous
// requests yield zero claims, which is a legitimate state here.
func ctxPrincipal(c echo.Context) ports.PrincipalClaims {
	principal, _ := c.Get(middleware.PrincipalKey).(ports.PrincipalClaims)
	return principal
}

// ctxSessionID derives the cache scope for this request: the authenticated
// subject when present, else the X-Session-ID header. An empty result means
// the request has no session cache at all.
func ctxSessionID(c echo.Context) string {
	if principal := ctxPrincipal(c); principal.Authenticated() {
		return principal.Subject
	}
	return c.Request().Header.Get(sessionHeader)
}

// ctxSignals assembles the request's identity signals: explicit query
// overrides (role with the legacy kind alias), the session scope, and the
// principal claims.
func ctxSignals(c echo.Context) ports.RequestSignals {
	role := c.QueryParam("role")
	if role == "" {
		role = c.QueryParam("kind")
	}
	return ports.RequestSignals{
		OverrideRole: role,
		OverrideCode: c.QueryParam("code"),
		SessionID:    ctxSessionID(c),
		Principal:    ctxPrincipal(c),
	}
}
