package screening

import (
	"net/http"

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
	staff := api.Group("/screening", auth.RequireRole(auth.RoleStaff))
	staff.POST("/health", h.PreviewHealth)
	staff.POST("/unit", h.PreviewUnit)
}

// PreviewHealth evaluates a health-check form without persisting it.
func (h *Handler) PreviewHealth(c echo.Context) error {
	var v Vitals
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.Health(v)
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", r)
}

// PreviewUnit evaluates a blood analysis without persisting it.
func (h *Handler) PreviewUnit(c echo.Context) error {
	var u UnitTest
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.Unit(u)
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", r)
}
