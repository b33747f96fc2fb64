package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// CredentialCookieName is the cookie carrying the signed credential.
const CredentialCookieName = "token"

const defaultCredentialTTL = 24 * time.Hour

var (
	errMissingCredential = errors.New("missing credential")
	errInvalidCredential = errors.New("invalid credential")
)

// Auth signs and verifies the cookie credential with a server-held
// secret. The same instance decides the cookie's cross-site attributes:
// production front ends are served cross-origin, so cookies there are
// Secure with SameSite=None; development uses SameSite=Strict.
type Auth struct {
	secret     []byte
	ttl        time.Duration
	production bool
	parser     *jwt.Parser
}

// NewAuth creates an Auth instance. A missing secret is a fatal
// configuration condition.
func NewAuth(secret []byte, ttl time.Duration, production bool) *Auth {
	if len(secret) == 0 {
		panic("api.NewAuth: signing secret must be set")
	}
	if ttl <= 0 {
		ttl = defaultCredentialTTL
	}
	return &Auth{
		secret:     secret,
		ttl:        ttl,
		production: production,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Issue signs a credential for the given email, valid for the configured
// TTL.
func (a *Auth) Issue(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify validates a raw credential and returns the identity it carries.
func (a *Auth) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, errMissingCredential
	}
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errInvalidCredential
	}
	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return Identity{}, errors.New("credential expired")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, errors.New("missing sub")
	}
	return Identity{Email: sub}, nil
}

// SetCookie attaches the credential cookie to the response.
func (a *Auth) SetCookie(c echo.Context, token string) {
	c.SetCookie(a.cookie(token, a.ttl))
}

// ClearCookie expires the credential cookie using the same attributes it
// was issued with. Clearing an absent cookie is a no-op.
func (a *Auth) ClearCookie(c echo.Context) {
	c.SetCookie(a.cookie("", 0))
}

func (a *Auth) cookie(value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     CredentialCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.production,
		SameSite: http.SameSiteStrictMode,
	}
	if a.production {
		ck.SameSite = http.SameSiteNoneMode
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl / time.Second)
		ck.Expires = time.Now().Add(ttl)
	} else {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	}
	return ck
}
