package inventory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
	"github.com/bloodlink/bloodlink/internal/platform/export"
	"github.com/bloodlink/bloodlink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/inventory", auth.RequireRole(auth.RoleStaff))
	g.GET("/units", h.List)
	g.PUT("/units/:id/status", h.UpdateStatus)
	g.POST("/expire", h.Expire)
}

func (h *Handler) List(c echo.Context) error {
	q := pagination.FromContext(c)
	if format := pagination.ExportFormat(c); format != "" {
		all, err := h.svc.Export(c.Request().Context(), q)
		if err != nil {
			return err
		}
		rows := make([][]string, len(all))
		for i, u := range all {
			rows[i] = exportRow(u)
		}
		return export.Send(c, format, "inventory", exportHeaders, rows)
	}
	page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", page)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid unit id")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return apiresp.OK(c, "unit updated", u)
}

func (h *Handler) Expire(c echo.Context) error {
	n, err := h.svc.Expire(c.Request().Context())
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", map[string]int64{"expired": n})
}
