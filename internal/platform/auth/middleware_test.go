package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func newAuthContext(token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	c, _ := newAuthContext(token)

	var gotUserID string
	handler := func(c echo.Context) error {
		gotUserID = UserIDFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUserID != "user-123" {
		t.Errorf("expected user-123, got %q", gotUserID)
	}
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	c, _ := newAuthContext("")
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	err := mw(handler)(c)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, _ := token.SignedString([]byte("other-secret"))
	c, _ := newAuthContext(raw)
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	if err := mw(handler)(c); err == nil {
		t.Fatal("expected error for token signed with wrong secret")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	c, _ := newAuthContext(token)
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	if err := mw(handler)(c); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub": "user-123",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	c, _ := newAuthContext(token)
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	mw := JWTMiddleware(JWTConfig{Secret: testSecret, Issuer: "symcheck"})
	if err := mw(handler)(c); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	c, _ := newAuthContext("")
	var gotUserID string
	handler := func(c echo.Context) error {
		gotUserID = UserIDFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	if err := DevAuthMiddleware()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUserID != DevUserID {
		t.Errorf("expected dev user id, got %q", gotUserID)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UserIDFromContext(req.Context()); got != "" {
		t.Errorf("expected empty user id, got %q", got)
	}
}
