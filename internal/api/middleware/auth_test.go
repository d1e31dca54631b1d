package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return c, err
}

func TestAuth_NoHeaderIsAnonymous(t *testing.T) {
	c, err := invoke(t, Auth(testSecret), "")
	if err != nil {
		t.Fatalf("anonymous request must pass: %v", err)
	}
	if _, ok := c.Get(PrincipalKey).(ports.PrincipalClaims); ok {
		t.Fatal("no principal must be injected for anonymous requests")
	}
}

func TestAuth_ValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user_1", "role": "center", "code": "001-D"})

	c, err := invoke(t, Auth(testSecret), "Bearer "+token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}

	principal, ok := c.Get(PrincipalKey).(ports.PrincipalClaims)
	if !ok {
		t.Fatal("principal claims not injected")
	}
	if principal.Subject != "user_1" || principal.Role != domain.RoleCenter || principal.Code != "001-D" {
		t.Fatalf("unexpected claims: %+v", principal)
	}
	if principal.Token != token {
		t.Fatal("raw token must be kept for upstream forwarding")
	}
}

func TestAuth_HubRoleFallback(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user_2", "hub_role": "manager"})

	c, err := invoke(t, Auth(testSecret), "Bearer "+token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	principal, _ := c.Get(PrincipalKey).(ports.PrincipalClaims)
	if principal.Role != domain.RoleManager {
		t.Fatalf("hub_role fallback not applied: %+v", principal)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	_, err := invoke(t, Auth(testSecret), "Bearer not-a-token")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuth_WrongScheme(t *testing.T) {
	_, err := invoke(t, Auth(testSecret), "Basic dXNlcjpwYXNz")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
