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

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, authorization string) (int, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.Code, c
		}
		t.Fatalf("unexpected error type: %v", err)
	}
	return rec.Code, c
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		LocationID: "loc_main",
		Roles:      []string{"billing"},
	})

	code, c := runAuth(t, mw, "Bearer "+token)
	if code != http.StatusOK {
		t.Fatalf("status %d, want 200", code)
	}
	if lid, _ := c.Get("jwt_location_id").(string); lid != "loc_main" {
		t.Errorf("jwt_location_id %q, want loc_main", lid)
	}
	if uid := UserFromContext(c.Request().Context()); uid != "staff-1" {
		t.Errorf("user %q, want staff-1", uid)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	code, _ := runAuth(t, mw, "")
	if code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	code, _ := runAuth(t, mw, "Bearer "+token)
	if code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", code)
	}
}

func TestJWTMiddleware_WrongScheme(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	code, _ := runAuth(t, mw, "Basic abc123")
	if code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  int
	}{
		{"matching role", []string{"billing"}, http.StatusOK},
		{"admin passes everything", []string{"admin"}, http.StatusOK},
		{"wrong role", []string{"front_desk"}, http.StatusForbidden},
		{"no roles", nil, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
			token := signToken(t, &Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "staff-1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
				Roles: tc.roles,
			})
			req.Header.Set("Authorization", "Bearer "+token)

			h := mw(RequireRole("billing")(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}))
			err := h(c)
			code := rec.Code
			if err != nil {
				var httpErr *echo.HTTPError
				errors.As(err, &httpErr)
				code = httpErr.Code
			}
			if code != tc.want {
				t.Errorf("status %d, want %d", code, tc.want)
			}
		})
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	code, c := runAuth(t, DevAuthMiddleware(), "")
	if code != http.StatusOK {
		t.Fatalf("status %d, want 200", code)
	}
	roles := RolesFromContext(c.Request().Context())
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("roles %v, want [admin]", roles)
	}
}
