package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour, false)

	token, err := auth.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	identity, err := auth.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestVerifyExpiredCredential(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"sub": "alice@example.com",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	auth := NewAuth(secret, time.Hour, false)
	if _, err := auth.Verify(signed); err == nil {
		t.Fatal("expected expired credential to fail verification")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewAuth([]byte("secret-a"), time.Hour, false)
	token, err := issuer.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := NewAuth([]byte("secret-b"), time.Hour, false)
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification with a different secret to fail")
	}
}

func TestVerifyMalformedAndMissing(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour, false)
	if _, err := auth.Verify(""); err != errMissingCredential {
		t.Fatalf("expected errMissingCredential, got %v", err)
	}
	if _, err := auth.Verify("not.a.jwt"); err == nil {
		t.Fatal("expected garbage credential to fail verification")
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	auth := NewAuth(secret, time.Hour, false)
	if _, err := auth.Verify(signed); err == nil {
		t.Fatal("expected credential without sub to fail verification")
	}
}

func TestNewAuthPanicsWithoutSecret(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing secret")
		}
	}()
	NewAuth(nil, time.Hour, false)
}

func issuedCookie(t *testing.T, auth *Auth, set func(echo.Context)) *http.Cookie {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	set(c)

	cookies := rec.Result().Cookies()
	for _, ck := range cookies {
		if ck.Name == CredentialCookieName {
			return ck
		}
	}
	t.Fatalf("credential cookie not set, got %v", cookies)
	return nil
}

func TestSetCookieDevelopmentAttributes(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), 24*time.Hour, false)
	ck := issuedCookie(t, auth, func(c echo.Context) { auth.SetCookie(c, "value") })

	if !ck.HttpOnly {
		t.Fatal("expected http-only cookie")
	}
	if ck.Secure {
		t.Fatal("expected insecure cookie outside production")
	}
	if ck.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", ck.SameSite)
	}
	if ck.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected max-age: %d", ck.MaxAge)
	}
	if ck.Value != "value" {
		t.Fatalf("unexpected value: %q", ck.Value)
	}
}

func TestSetCookieProductionAttributes(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), 24*time.Hour, true)
	ck := issuedCookie(t, auth, func(c echo.Context) { auth.SetCookie(c, "value") })

	if !ck.Secure {
		t.Fatal("expected secure cookie in production")
	}
	if ck.SameSite != http.SameSiteNoneMode {
		t.Fatalf("expected SameSite=None, got %v", ck.SameSite)
	}
}

func TestClearCookieExpiresCredential(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), 24*time.Hour, false)
	ck := issuedCookie(t, auth, func(c echo.Context) { auth.ClearCookie(c) })

	if ck.Value != "" {
		t.Fatalf("expected cleared value, got %q", ck.Value)
	}
	if ck.MaxAge >= 0 {
		t.Fatalf("expected negative max-age to expire the cookie, got %d", ck.MaxAge)
	}
}
