package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Go-Pr0/stock-analyze-backend/internal/store"
)

// AdminHandler serves whitelist management for admin users.
type AdminHandler struct {
	Store *store.Store
}

func (h *AdminHandler) Register(g *echo.Group) {
	g.GET("/whitelist", h.list)
	g.POST("/whitelist", h.add)
	g.DELETE("/whitelist", h.remove)
}

func (h *AdminHandler) list(c echo.Context) error {
	emails, err := h.Store.ListWhitelistedEmails(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if emails == nil {
		emails = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"emails": emails})
}

func (h *AdminHandler) add(c echo.Context) error {
	var req WhitelistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email required")
	}
	if err := h.Store.AddWhitelistedEmail(c.Request().Context(), email); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusCreated)
}

func (h *AdminHandler) remove(c echo.Context) error {
	var req WhitelistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email required")
	}
	if err := h.Store.RemoveWhitelistedEmail(c.Request().Context(), email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "email not whitelisted")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
