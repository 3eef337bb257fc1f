package api

import (
	"errors"
	"net/http"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/flow"
	"github.com/getkayan/kayan-notes/identity"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errInvalidCredentials = domain.NewError(domain.KindUnauthorized, "Invalid credentials")

func (h *Handler) HandleLogin(c echo.Context) error {
	var body loginRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	email := identity.NormalizeEmail(body.Email)
	user, err := h.login.Authenticate(c.Request().Context(), "password", email, body.Password)
	if err != nil {
		if errors.Is(err, flow.ErrInvalidCredentials) {
			h.metrics.RecordLogin(c.Request().Context(), false)
			h.log.Info("login failed", zap.String("email", email))
			return errInvalidCredentials
		}
		if flow.IsRateLimitError(err) {
			h.metrics.RecordRateLimit(c.Request().Context(), "login")
		}
		return err
	}
	h.metrics.RecordLogin(c.Request().Context(), true)

	token, err := h.sessions.Issue(user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   token.ExpiresIn,
		User:        loginSubject{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}
