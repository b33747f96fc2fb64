package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const identityContextKey = "identity"

// RequireCredential rejects requests lacking a valid credential cookie
// before any handler or storage work runs, and stores the verified
// identity on the echo context for downstream handlers.
func RequireCredential(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(CredentialCookieName)
			if err != nil || ck.Value == "" {
				return c.JSON(http.StatusUnauthorized, messageResponse{Message: "unauthorized access"})
			}
			identity, err := auth.Verify(ck.Value)
			if err != nil {
				c.Logger().Debug(err)
				return c.JSON(http.StatusUnauthorized, messageResponse{Message: "unauthorized access"})
			}
			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

func identityFromContext(c echo.Context) (Identity, bool) {
	identity, ok := c.Get(identityContextKey).(Identity)
	return identity, ok
}
