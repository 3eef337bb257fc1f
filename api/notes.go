package api

import (
	"net/http"

	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/service"
	"github.com/labstack/echo/v4"
)

func (h *Handler) HandleCreateNote(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var body createNoteRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	n, err := h.notes.Create(c.Request().Context(), userID, body.Title, body.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newNoteResponse(n))
}

func (h *Handler) HandleSearchNotes(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var q noteSearchQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	page, limit := q.page()

	res, err := h.notes.Search(c.Request().Context(), domain.NoteQuery{
		OwnerID: userID,
		Status:  q.Status,
		Search:  q.Search,
		Page:    domain.Page{Page: page, Limit: limit},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPaginatedNotes(res))
}

func (h *Handler) HandleNoteStats(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	stats, err := h.notes.Stats(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) HandleRecentNotes(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var q recentQuery
	if err := bind(c, &q); err != nil {
		return err
	}

	notes, err := h.notes.Recent(c.Request().Context(), userID, q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newNoteResponses(notes))
}

func (h *Handler) HandleGetNote(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	n, err := h.notes.Get(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newNoteResponse(n))
}

func (h *Handler) HandleUpdateNote(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	var body updateNoteRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	n, err := h.notes.Update(c.Request().Context(), c.Param("id"), userID, service.NoteUpdate{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newNoteResponse(n))
}

func (h *Handler) HandleDeleteNote(c echo.Context) error {
	userID, err := h.principal(c)
	if err != nil {
		return err
	}
	if err := h.notes.Delete(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleAdminNotes(c echo.Context) error {
	var q PageQuery
	if err := bind(c, &q); err != nil {
		return err
	}
	page, limit := q.page()

	res, err := h.notes.ListActive(c.Request().Context(), domain.Page{Page: page, Limit: limit})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newPaginatedNotes(res))
}
