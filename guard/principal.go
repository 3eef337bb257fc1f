package guard

import (
	"github.com/getkayan/kayan-notes/identity"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated principal on the request context.
func SetPrincipal(c echo.Context, p *identity.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal stored by SetPrincipal.
func PrincipalFrom(c echo.Context) (*identity.Principal, bool) {
	p, ok := c.Get(principalKey).(*identity.Principal)
	return p, ok && p != nil
}
