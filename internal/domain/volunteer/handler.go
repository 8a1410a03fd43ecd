package volunteer

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
	"github.com/bloodlink/bloodlink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	member := auth.RequireRole(auth.RoleMember)
	staff := auth.RequireRole(auth.RoleStaff)

	api.POST("/Volunteers", h.Register, member)
	api.GET("/Volunteers/me", h.Mine, member)
	api.PUT("/Volunteers/:id/withdraw", h.Withdraw, auth.RequireAuth())
	api.GET("/Volunteers/:facilityId/paged", h.ListByFacility, staff)
	api.POST("/Volunteers/find-donors", h.FindDonors, staff)
}

func (h *Handler) Register(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.Register(c.Request().Context(), auth.CurrentSession(c).UserID, req)
	if err != nil {
		return err
	}
	return apiresp.Created(c, "thank you for volunteering", v)
}

func (h *Handler) Mine(c echo.Context) error {
	list, err := h.svc.Mine(c.Request().Context(), auth.CurrentSession(c).UserID)
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", list)
}

func (h *Handler) Withdraw(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid volunteer id")
	}
	s := auth.CurrentSession(c)
	v, err := h.svc.Withdraw(c.Request().Context(), id, s.UserID, s.HasRole(auth.RoleStaff))
	if err != nil {
		return httpError(err)
	}
	return apiresp.OK(c, "volunteer withdrawn", v)
}

func (h *Handler) ListByFacility(c echo.Context) error {
	facilityID, err := uuid.Parse(c.Param("facilityId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid facility id")
	}
	page, err := h.svc.ListByFacility(c.Request().Context(), facilityID, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", page)
}

func (h *Handler) FindDonors(c echo.Context) error {
	var req FindDonorsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	matches, err := h.svc.FindDonors(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return apiresp.OK(c, "", matches)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return err
}
