package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func TestCheckRole_AllowSet(t *testing.T) {
	for _, role := range []string{"doctor", "Doctor", "MANAGER", "  manager "} {
		if err := CheckRole(role); err != nil {
			t.Errorf("CheckRole(%q) = %v, want nil", role, err)
		}
	}
	for _, role := range []string{"nurse", "", "admin", "doctor2"} {
		if err := CheckRole(role); !errors.Is(err, ErrForbidden) {
			t.Errorf("CheckRole(%q) = %v, want ErrForbidden", role, err)
		}
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func doRequest(t *testing.T, mw []echo.MiddlewareFunc, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/bills", nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := okHandler
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireRole_HeaderRole(t *testing.T) {
	mw := []echo.MiddlewareFunc{RoleExtractor(nil), RequireRole()}

	rec := doRequest(t, mw, http.Header{"X-Role": []string{"Doctor"}})
	if rec.Code != http.StatusOK {
		t.Errorf("doctor via header: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, mw, http.Header{"X-Role": []string{"nurse"}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("nurse: expected 403, got %d", rec.Code)
	}

	rec = doRequest(t, mw, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no role: expected 403, got %d", rec.Code)
	}
}

func TestRequireRole_JWTRoles(t *testing.T) {
	secret := []byte("test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"manager"},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	mw := []echo.MiddlewareFunc{RoleExtractor(secret), RequireRole()}
	rec := doRequest(t, mw, http.Header{"Authorization": []string{"Bearer " + signed}})
	if rec.Code != http.StatusOK {
		t.Errorf("manager via jwt: expected 200, got %d", rec.Code)
	}

	// Tampered token falls back to no roles.
	rec = doRequest(t, mw, http.Header{"Authorization": []string{"Bearer " + signed + "x"}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad token: expected 403, got %d", rec.Code)
	}
}

func TestDevRoleMiddleware_InjectsDoctor(t *testing.T) {
	mw := []echo.MiddlewareFunc{RoleExtractor(nil), DevRoleMiddleware(), RequireRole()}
	rec := doRequest(t, mw, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("dev mode: expected 200, got %d", rec.Code)
	}
}
