package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/mehedi89/chirper/backend/internal/models"
)

func newProtectedEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/api/v1")
	g.Use(JWTAuthMiddleware())
	g.GET("/ping", func(c echo.Context) error {
		claims := c.Get("user").(*models.JwtCustomClaims)
		return c.JSON(http.StatusOK, echo.Map{"user_id": claims.UserID})
	})
	return e
}

func signToken(t *testing.T, secret string, userID uint) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:   userID,
		Username: "sam",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	e := newProtectedEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthRejectsMalformedHeader(t *testing.T) {
	e := newProtectedEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	e := newProtectedEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", 42))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJWTAuthRejectsWrongSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	e := newProtectedEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", 42))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
