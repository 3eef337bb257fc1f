package api

import (
	"net/http"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/guard"
	"github.com/labstack/echo/v4"
)

var errOwnPasswordOnly = domain.NewError(domain.KindForbidden, "You can only change your own password")

func (h *Handler) HandleCreateUser(c echo.Context) error {
	var body createUserRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	u, err := h.users.Create(c.Request().Context(), body.Email, body.Password, body.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newUserResponse(u))
}

func (h *Handler) HandleListUsers(c echo.Context) error {
	var q PageQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	page, limit := q.page()

	res, err := h.users.List(c.Request().Context(), domain.Page{Page: page, Limit: limit})
	if err != nil {
		return err
	}
	out := paginatedUsers{
		Users:      make([]userResponse, len(res.Items)),
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
	}
	for i := range res.Items {
		out.Users[i] = newUserResponse(&res.Items[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) HandleGetUser(c echo.Context) error {
	u, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *Handler) HandleDeleteUser(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleChangePassword(c echo.Context) error {
	p, ok := guard.PrincipalFrom(c)
	if !ok {
		return guard.ErrAuthenticationRequired
	}
	if p.ID != c.Param("id") {
		return errOwnPasswordOnly
	}

	var body changePasswordRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	if err := h.users.ChangePassword(c.Request().Context(), p.ID, body.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
