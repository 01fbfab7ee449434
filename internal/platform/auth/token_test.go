package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testTokenCfg = TokenConfig{
	SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	TTL:        time.Hour,
}

func TestIssueToken_RoundTrip(t *testing.T) {
	id := Identity{UserID: "2", Name: "John Doe", Role: RolePatient, PatientID: "p1"}
	token, err := IssueToken(testTokenCfg, id, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return testTokenCfg.SigningKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "2" || claims.Role != RolePatient || claims.PatientID != "p1" {
		t.Errorf("claims: %+v", claims)
	}
}

func TestTokenMiddleware_SetsIdentity(t *testing.T) {
	id := Identity{UserID: "1", Name: "Dr. Smith", Role: RoleAdmin}
	token, err := IssueToken(testTokenCfg, id, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen Identity
	next := func(c echo.Context) error {
		seen, _ = FromContext(c.Request().Context())
		return nil
	}
	if err := TokenMiddleware(testTokenCfg)(next)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if seen.UserID != "1" || seen.Role != RoleAdmin {
		t.Errorf("identity on context: %+v", seen)
	}
}

func TestTokenMiddleware_Rejections(t *testing.T) {
	expired, err := IssueToken(testTokenCfg, Identity{UserID: "1", Role: RoleAdmin}, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	otherKey := TokenConfig{SigningKey: []byte("ffffffffffffffffffffffffffffffff"), TTL: time.Hour}
	forged, err := IssueToken(otherKey, Identity{UserID: "1", Role: RoleAdmin}, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong key", "Bearer " + forged},
	}
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			err := TokenMiddleware(testTokenCfg)(next)(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusUnauthorized {
				t.Errorf("want 401, got %v", err)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	run := func(id *Identity, roles ...string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if id != nil {
			req = req.WithContext(WithIdentity(req.Context(), *id))
		}
		c := e.NewContext(req, httptest.NewRecorder())
		return RequireRole(roles...)(next)(c)
	}

	if err := run(&Identity{Role: RolePatient, PatientID: "p1"}, RolePatient); err != nil {
		t.Errorf("matching role: %v", err)
	}
	// Admins pass any role gate.
	if err := run(&Identity{Role: RoleAdmin}, RolePatient); err != nil {
		t.Errorf("admin passthrough: %v", err)
	}
	if err := run(&Identity{Role: RolePatient}, RoleAdmin); err == nil {
		t.Error("patient must not pass an admin gate")
	} else if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("want 403, got %v", err)
	}
	if err := run(nil, RoleAdmin); err == nil {
		t.Error("missing identity must be rejected")
	} else if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("want 401, got %v", err)
	}
}
