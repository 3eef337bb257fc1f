package api

import (
	"net/http"
	"time"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/service"
	"github.com/labstack/echo/v4"
)

func (h *Handler) HandleShareNote(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var body shareRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	l, err := h.links.Create(c.Request().Context(), c.Param("id"), userID, body.Description, body.ExpiresAt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, h.newLinkResponse(l, h.now()))
}

func (h *Handler) HandleListLinks(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var q PageQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	page, limit := q.page()

	res, err := h.links.List(c.Request().Context(), userID, domain.Page{Page: page, Limit: limit})
	if err != nil {
		return err
	}

	now := h.now()
	out := paginatedLinks{
		Links:      make([]linkResponse, len(res.Items)),
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
	}
	for i := range res.Items {
		out.Links[i] = h.newLinkResponse(&res.Items[i], now)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) HandleLinkStats(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	stats, err := h.links.Stats(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) HandleUpdateLink(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var body updateLinkRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	l, err := h.links.Update(c.Request().Context(), c.Param("publicId"), userID, service.LinkUpdate{
		Description: body.Description,
		ExpiresAt:   body.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.newLinkResponse(l, h.now()))
}

func (h *Handler) HandleDeleteLink(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	if err := h.links.Delete(c.Request().Context(), c.Param("publicId"), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandlePublicNote(c echo.Context) error {
	l, err := h.links.Access(c.Request().Context(), c.Param("publicId"))
	if err != nil {
		return err
	}
	h.metrics.RecordLinkView(c.Request().Context())
	return c.JSON(http.StatusOK, newPublicNoteResponse(l.Note))
}

func (h *Handler) HandlePublicHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"service":   "notes-backend-public",
	})
}
