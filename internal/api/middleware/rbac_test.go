package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/employees", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(RoleKey, "admin")

	called := false
	handler := RBAC("admin")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusNoContent)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/employees", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(RoleKey, "viewer")

	handler := RBAC("admin")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	e := echo.New()
	reached := false
	e.DELETE("/employees", func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusNoContent)
	}, AdminOnly("secret")...)

	cases := []struct {
		name   string
		role   string
		status int
	}{
		{"admin", "admin", http.StatusNoContent},
		{"non-admin", "viewer", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			signed := sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"role": tc.role})
			req := httptest.NewRequest(http.MethodDelete, "/employees", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if reached != (tc.status == http.StatusNoContent) {
				t.Fatalf("unexpected reach state %v", reached)
			}
		})
	}
}
