package report

import (
	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleStaff))
	g.GET("/stats", h.Stats)
	g.GET("/blood-stock", h.BloodStock)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", stats)
}

func (h *Handler) BloodStock(c echo.Context) error {
	levels, err := h.svc.BloodStock(c.Request().Context())
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", levels)
}
